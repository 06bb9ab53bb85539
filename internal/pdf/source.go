// Package pdf reads the text of PDF documents and discovers PDF files on disk
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// DefaultMaxTextSize caps the amount of text kept per document
const DefaultMaxTextSize = 10 * 1024 * 1024 // 10MB

// TextSource turns PDF files into plain text
type TextSource struct {
	maxFileSize int64
	maxTextSize int
	logger      *zap.Logger
}

// SourceOption configures a TextSource
type SourceOption func(*TextSource)

// WithSourceLogger sets the logger of the text source
func WithSourceLogger(logger *zap.Logger) SourceOption {
	return func(s *TextSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxTextSize sets the per-document text limit
func WithMaxTextSize(n int) SourceOption {
	return func(s *TextSource) {
		if n > 0 {
			s.maxTextSize = n
		}
	}
}

// NewTextSource creates a text source accepting files up to maxFileSize bytes
func NewTextSource(maxFileSize int64, opts ...SourceOption) *TextSource {
	s := &TextSource{
		maxFileSize: maxFileSize,
		maxTextSize: DefaultMaxTextSize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadText extracts the text of every page of the PDF at path, pages joined
// by newlines. password may be empty. Failures are *SourceError values
// wrapping ErrEncrypted, ErrUnreadable or ErrNoText.
func (s *TextSource) ReadText(ctx context.Context, path, password string) (string, error) {
	if err := s.validateFile(path); err != nil {
		return "", newSourceError(path, ErrUnreadable, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", newSourceError(path, ErrUnreadable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", newSourceError(path, ErrUnreadable, err)
	}

	reader, err := s.open(f, info.Size(), password)
	if err != nil {
		var srcErr *SourceError
		if errors.As(err, &srcErr) {
			srcErr.Path = path
			return "", srcErr
		}
		return "", newSourceError(path, ErrUnreadable, err)
	}

	text, err := s.extractText(ctx, reader)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", newSourceError(path, ErrNoText, nil)
	}

	s.logger.Debug("read document text",
		zap.String("path", path),
		zap.Int("pages", reader.NumPage()),
		zap.Int("chars", len(text)))
	return text, nil
}

// validateFile performs basic validation on a PDF file
func (s *TextSource) validateFile(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !isPDFFile(path) {
		return fmt.Errorf("file is not a PDF: %s", path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if fileInfo.Size() > s.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), s.maxFileSize)
	}

	return nil
}

// open parses the document, decrypting it when needed. ledongthuc/pdf
// handles RC4 and AES-128; anything it refuses is handed to pdfcpu.
func (s *TextSource) open(f *os.File, size int64, password string) (*pdf.Reader, error) {
	offered := false
	reader, err := pdf.NewReaderEncrypted(f, size, func() string {
		if offered {
			return ""
		}
		offered = true
		return password
	})
	if err == nil {
		return reader, nil
	}

	if !isEncryptionError(err) {
		return nil, newSourceError("", ErrUnreadable, err)
	}
	if errors.Is(err, pdf.ErrInvalidPassword) && password == "" {
		return nil, newSourceError("", ErrEncrypted, nil)
	}

	s.logger.Debug("falling back to pdfcpu decryption", zap.Error(err))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, newSourceError("", ErrUnreadable, err)
	}
	plain, err := decrypt(f, password)
	if err != nil {
		return nil, newSourceError("", ErrEncrypted, err)
	}

	reader, err = pdf.NewReader(bytes.NewReader(plain), int64(len(plain)))
	if err != nil {
		return nil, newSourceError("", ErrUnreadable, err)
	}
	return reader, nil
}

// decrypt removes the encryption of a document with pdfcpu
func decrypt(rs io.ReadSeeker, password string) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password

	var buf bytes.Buffer
	if err := api.Decrypt(rs, &buf, conf); err != nil {
		return nil, fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func isEncryptionError(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}

// extractText joins the plain text of every page. A page that fails to
// parse is skipped.
func (s *TextSource) extractText(ctx context.Context, reader *pdf.Reader) (string, error) {
	var builder strings.Builder
	totalLength := 0

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		content, err := pageText(reader, pageNum)
		if err != nil {
			s.logger.Debug("skipping unreadable page", zap.Int("page", pageNum), zap.Error(err))
			continue
		}

		if totalLength+len(content) > s.maxTextSize {
			remaining := s.maxTextSize - totalLength
			if remaining > 0 {
				builder.WriteString(clip(content, remaining))
			}
			break
		}

		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(content)
		totalLength += len(content)
	}

	text := strings.ReplaceAll(builder.String(), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// clip cuts s to at most n bytes without splitting a rune
func clip(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// pageText extracts the text of one page, turning parser panics on
// malformed content into errors
func pageText(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// isPDFFile checks if a file has a PDF extension
func isPDFFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
