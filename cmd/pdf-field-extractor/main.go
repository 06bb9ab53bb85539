// Package main is the entry point of the pdf-field-extractor CLI. It
// extracts fields from PDF documents, manages custom patterns and serves
// the extraction tools over MCP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-field-extractor/internal/config"
	"github.com/a3tai/pdf-field-extractor/internal/logging"
	"github.com/a3tai/pdf-field-extractor/internal/service"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// serviceOptions are appended to every service the CLI builds
var serviceOptions []service.Option

// app bundles what a command needs once configuration is resolved
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *service.Service
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdf-field-extractor",
		Short: "Extract structured fields from PDF documents",
		Long: `pdf-field-extractor reads the text of PDF documents and extracts named fields
(name, date of birth, insurance information and custom fields) using ordered
chains of regular expressions. Results are printed as JSON or exported to
csv, xlsx, json, yaml or sqlite.

Settings come from flags, PDF_FIELDS_* environment variables and an optional
config file, in that order of precedence.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file (YAML, JSON or TOML)")
	config.DefineFlags(root.PersistentFlags(), config.DefaultConfig())

	root.AddCommand(
		newExtractCmd(),
		newPatternsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// setup resolves the configuration of cmd and builds the logger and service
func setup(cmd *cobra.Command) (*app, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, settings, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return nil, err
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", zap.Stringer("config", cfg))
	if cfg.IsDebug() {
		logger.Debug("resolved settings", zap.Any("settings", debugSettings(settings)))
	}

	svc, err := service.New(cfg, logger, serviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	return &app{cfg: cfg, logger: logger, service: svc}, nil
}

// debugSettings returns every resolved setting with the password removed
func debugSettings(settings *config.Settings) map[string]any {
	all := settings.All()
	if pw, ok := all[config.KeyPassword].(string); ok && pw != "" {
		all[config.KeyPassword] = logging.Redacted(pw)
	}
	return all
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
