package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-field-extractor/internal/extract"
)

// errAllFailed is returned when not a single document could be processed
var errAllFailed = errors.New("no document could be processed")

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [files|globs|directories...]",
		Short: "Extract fields from PDF documents",
		Long: `Extract reads every PDF matched by the arguments, extracts the registered
fields and prints the records as JSON, or exports them when --output is set.
Directories are searched recursively. A document that cannot be read is
reported as an error record; the others are still processed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().StringSlice("fields", nil, "field identifiers to extract (default all)")
	cmd.Flags().StringArray("pattern", nil, "fallback pattern as field=regex (repeatable)")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	extra, err := cmd.Flags().GetStringArray("pattern")
	if err != nil {
		return err
	}
	for _, spec := range extra {
		field, expr, err := parsePatternFlag(spec)
		if err != nil {
			return err
		}
		if err := a.service.AddPattern(field, expr); err != nil {
			return fmt.Errorf("invalid --pattern %q: %w", spec, err)
		}
	}

	fields, err := cmd.Flags().GetStringSlice("fields")
	if err != nil {
		return err
	}

	records, err := a.service.ProcessFiles(cmd.Context(), args, a.cfg.Password, fields...)
	if err != nil {
		return err
	}

	if a.cfg.Output == "" {
		if err := writeJSON(cmd, records); err != nil {
			return err
		}
	} else {
		written, err := a.service.Export(records, a.cfg.Output, a.cfg.Format)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", len(records), written)
	}

	failed := 0
	for _, rec := range records {
		if rec.Failed() {
			failed++
		}
	}
	if failed > 0 {
		a.logger.Warn("some documents failed", zap.Int("failed", failed), zap.Int("total", len(records)))
	}
	if failed == len(records) {
		return errAllFailed
	}
	return nil
}

// parsePatternFlag splits a field=regex flag value
func parsePatternFlag(spec string) (string, string, error) {
	field, expr, ok := strings.Cut(spec, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" || expr == "" {
		return "", "", fmt.Errorf("invalid --pattern %q: expected field=regex", spec)
	}
	return field, expr, nil
}

func writeJSON(cmd *cobra.Command, records []*extract.Record) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
