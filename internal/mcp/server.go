package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-field-extractor/internal/config"
	"github.com/a3tai/pdf-field-extractor/internal/descriptions"
	"github.com/a3tai/pdf-field-extractor/internal/extract"
	"github.com/a3tai/pdf-field-extractor/internal/patterns"
	"github.com/a3tai/pdf-field-extractor/internal/pdf"
	"github.com/a3tai/pdf-field-extractor/internal/service"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *service.Service
	validator *pdf.PathValidator
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	validator, err := pdf.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		validator: validator,
		logger:    logger,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_extract_fields",
		mcp.WithDescription(descriptions.PDFExtractFieldsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
		mcp.WithString("password",
			mcp.Description("Password of an encrypted PDF"),
		),
		mcp.WithString("fields",
			mcp.Description("Comma separated field identifiers (all fields if empty)"),
		),
	), s.handleExtractFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_extract_text",
		mcp.WithDescription(descriptions.PDFExtractTextDescription),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to extract fields from"),
		),
		mcp.WithString("source",
			mcp.Description("Name recorded as the source of the text"),
		),
		mcp.WithString("fields",
			mcp.Description("Comma separated field identifiers (all fields if empty)"),
		),
	), s.handleExtractText)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_extract_directory",
		mcp.WithDescription(descriptions.PDFExtractDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional fuzzy file name filter"),
		),
		mcp.WithString("password",
			mcp.Description("Password tried on encrypted PDFs"),
		),
		mcp.WithString("fields",
			mcp.Description("Comma separated field identifiers (all fields if empty)"),
		),
	), s.handleExtractDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_search_directory",
		mcp.WithDescription(descriptions.PDFSearchDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	), s.handleSearchDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_list_patterns",
		mcp.WithDescription(descriptions.PDFListPatternsDescription),
		mcp.WithString("field",
			mcp.Description("Only list this field"),
		),
	), s.handleListPatterns)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_add_pattern",
		mcp.WithDescription(descriptions.PDFAddPatternDescription),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field identifier, existing or new"),
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Regular expression with exactly one capturing group"),
		),
	), s.handleAddPattern)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_export",
		mcp.WithDescription(descriptions.PDFExportDescription),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Output file, relative to the configured directory"),
		),
		mcp.WithString("format",
			mcp.Description("csv, xlsx, json, yaml or sqlite (uses configured format if empty)"),
		),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional fuzzy file name filter"),
		),
		mcp.WithString("password",
			mcp.Description("Password tried on encrypted PDFs"),
		),
		mcp.WithString("fields",
			mcp.Description("Comma separated field identifiers (all fields if empty)"),
		),
	), s.handleExport)
}

// Handler functions
func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	resolved, err := s.validator.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.service.ProcessFile(ctx, resolved, stringArg(args, "password"), fieldsArg(args)...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRecord(rec)), nil
}

func (s *Server) handleExtractText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	source := stringArg(args, "source")
	if source == "" {
		source = "text"
	}

	rec, err := s.service.ExtractText(source, text, fieldsArg(args)...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRecord(rec)), nil
}

func (s *Server) handleExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory, err := s.resolveDirectory(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := s.processDirectory(ctx, directory, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(noFilesText(directory, stringArg(args, "query"))), nil
	}

	return mcp.NewToolResultText(formatBatch(records)), nil
}

func (s *Server) handleSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory, err := s.resolveDirectory(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query := stringArg(args, "query")

	files, err := s.service.SearchDirectory(directory, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(noFilesText(directory, query)), nil
	}

	return mcp.NewToolResultText(formatSearchResult(directory, query, files)), nil
}

func (s *Server) handleListPatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	only := stringArg(request.GetArguments(), "field")

	specs := s.service.Registry().Specs()
	if only != "" {
		filtered := specs[:0:0]
		for _, spec := range specs {
			if spec.ID == only {
				filtered = append(filtered, spec)
			}
		}
		if len(filtered) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("unknown field: %s", only)), nil
		}
		specs = filtered
	}

	return mcp.NewToolResultText(formatSpecs(specs)), nil
}

func (s *Server) handleAddPattern(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := request.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expr, err := request.RequireString("pattern")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.service.AddPattern(field, expr); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	chain := s.service.Registry().ChainFor(strings.TrimSpace(field))
	return mcp.NewToolResultText(fmt.Sprintf(
		"Added pattern to field %s at position %d of %d\nPattern: %s\n",
		strings.TrimSpace(field), len(chain), len(chain), expr)), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output, err := request.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	format := stringArg(args, "format")
	if format == "" {
		format = s.config.Format
	}

	target, err := s.validator.Resolve(output)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	directory, err := s.resolveDirectory(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := s.processDirectory(ctx, directory, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(noFilesText(directory, stringArg(args, "query"))), nil
	}

	written, err := s.service.Export(records, target, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.service.Summary(records)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Exported %d record(s) to %s\n", summary.TotalRecords, written)
	text += fmt.Sprintf("Failed documents: %d\n", summary.FailedRecords)
	text += "\nNon-empty values per column:\n"
	for _, column := range summary.Fields {
		text += fmt.Sprintf("  %s: %d\n", column, summary.NonEmptyCounts[column])
	}

	return mcp.NewToolResultText(text), nil
}

func (s *Server) resolveDirectory(args map[string]any) (string, error) {
	directory := stringArg(args, "directory")
	if directory == "" {
		directory = s.config.PDFDirectory
	}
	return s.validator.Resolve(directory)
}

// processDirectory extracts every matching PDF of directory. No matching
// file gives no records and no error.
func (s *Server) processDirectory(ctx context.Context, directory string, args map[string]any) ([]*extract.Record, error) {
	files, err := s.service.SearchDirectory(directory, stringArg(args, "query"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	return s.service.ProcessFiles(ctx, paths, stringArg(args, "password"), fieldsArg(args)...)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func fieldsArg(args map[string]any) []string {
	raw := stringArg(args, "fields")
	if raw == "" {
		return nil
	}

	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Formatting methods
func noFilesText(directory, query string) string {
	text := fmt.Sprintf("No PDF files found in directory: %s", directory)
	if query != "" {
		text += fmt.Sprintf(" (searched for: %s)", query)
	}
	return text
}

func formatRecord(rec *extract.Record) string {
	text := fmt.Sprintf("Source: %s\n", rec.Source)
	text += fmt.Sprintf("Record ID: %s\n", rec.ID)
	text += fmt.Sprintf("Extracted: %s\n", rec.ExtractedAt.Format(time.RFC3339))
	if rec.Failed() {
		text += fmt.Sprintf("Error: %s\n", rec.Error)
	}

	text += "\nFields:\n"
	for _, f := range rec.Fields {
		switch {
		case f.Error != "":
			text += fmt.Sprintf("  %s: (error: %s)\n", f.Label, f.Error)
		case f.Found:
			text += fmt.Sprintf("  %s: %s\n", f.Label, f.Value)
		default:
			text += fmt.Sprintf("  %s: (not found)\n", f.Label)
		}
	}

	if rec.RawText != "" {
		text += "\nRaw Text:\n" + rec.RawText + "\n"
	}
	return text
}

func formatBatch(records []*extract.Record) string {
	failed := 0
	for _, rec := range records {
		if rec.Failed() {
			failed++
		}
	}

	text := fmt.Sprintf("Processed %d document(s), %d failed\n", len(records), failed)
	for i, rec := range records {
		text += fmt.Sprintf("\n%d. ", i+1)
		text += formatRecord(rec)
	}
	return text
}

func formatSearchResult(directory, query string, files []pdf.FileInfo) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", len(files), directory)
	if query != "" {
		text += fmt.Sprintf("Search query: %s\n", query)
	}
	text += "\nFiles:\n"

	for i, file := range files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(files)-1 {
			text += "\n"
		}
	}

	return text
}

func formatSpecs(specs []patterns.FieldSpec) string {
	text := fmt.Sprintf("Registered fields: %d\n", len(specs))
	for _, spec := range specs {
		text += fmt.Sprintf("\n%s (%s)\n", spec.ID, spec.Label)
		text += fmt.Sprintf("  Kind: %s\n", spec.Kind)
		text += fmt.Sprintf("  Policy: %s", patterns.PolicyName(spec.Policy))
		if agg, ok := spec.Policy.(patterns.AggregateMatches); ok {
			text += fmt.Sprintf(" (limit %d, separator %q)", agg.Limit, agg.Separator)
		}
		text += "\n  Patterns:\n"
		for i, p := range spec.Patterns {
			text += fmt.Sprintf("    %d. %s\n", i+1, p)
		}
	}
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch {
	case s.config.IsServerMode():
		return s.runServerMode(ctx)
	case s.config.IsStdioMode():
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode runs the server over standard input and output
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Info("starting MCP server in stdio mode",
		zap.String("directory", s.config.PDFDirectory))

	if err := server.ServeStdio(s.mcpServer, server.WithErrorLogger(zap.NewStdLog(s.logger))); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	s.logger.Info("starting MCP server in server mode",
		zap.String("address", addr),
		zap.String("directory", s.config.PDFDirectory))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve sse: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down MCP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down sse server: %w", err)
		}
		return nil
	}
}
