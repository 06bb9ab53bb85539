package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/require"
)

// generateTextPDF builds a one page PDF showing each line with Helvetica,
// with accurate xref offsets. No lines gives a page without content.
func generateTextPDF(lines ...string) string {
	var stream strings.Builder
	if len(lines) > 0 {
		stream.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
		for i, line := range lines {
			if i > 0 {
				stream.WriteString("0 -14 Td\n")
			}
			fmt.Fprintf(&stream, "(%s) Tj\n", line)
		}
		stream.WriteString("ET\n")
	}

	objects := []string{
		"<<\n/Type /Catalog\n/Pages 2 0 R\n>>",
		"<<\n/Type /Pages\n/Kids [3 0 R]\n/Count 1\n>>",
		"<<\n/Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 612 792]\n" +
			"/Resources << /Font << /F1 4 0 R >> >>\n/Contents 5 0 R\n>>",
		"<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n/Encoding /WinAnsiEncoding\n>>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", stream.Len(), stream.String()),
	}

	pdf := "%PDF-1.4\n"
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = len(pdf)
		pdf += fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := len(pdf)
	pdf += fmt.Sprintf("xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		pdf += fmt.Sprintf("%010d 00000 n \n", off)
	}
	pdf += fmt.Sprintf("trailer\n<<\n/Size %d\n/Root 1 0 R\n>>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)
	return pdf
}

func writeTextPDF(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(generateTextPDF(lines...)), 0o600))
	return path
}

// writeEncryptedPDF writes an AES-256 encrypted copy of a text PDF
func writeEncryptedPDF(t *testing.T, dir, name, userPW string, lines ...string) string {
	t.Helper()
	plain := writeTextPDF(t, t.TempDir(), "plain.pdf", lines...)
	out := filepath.Join(dir, name)

	conf := model.NewAESConfiguration(userPW, userPW+"-owner", 256)
	require.NoError(t, api.EncryptFile(plain, out, conf))
	return out
}
