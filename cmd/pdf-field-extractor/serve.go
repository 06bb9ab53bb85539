package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-field-extractor/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction tools over MCP",
		Long: `Serve exposes the extraction tools to MCP clients, over standard input and
output (--mode stdio, the default) or over SSE (--mode server).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			server, err := mcp.NewServer(a.cfg, a.service, a.logger.Named("mcp"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			if err := server.Run(ctx); err != nil {
				a.logger.Error("server stopped with error", zap.Error(err))
				return err
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
}
