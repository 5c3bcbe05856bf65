package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/memory-bank/internal/logging"
	mbserver "github.com/HendryAvila/memory-bank/internal/server"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdin/stdout.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "memory-bank": {
        "command": "memory-bank",
        "args": ["serve"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			// stdout belongs to the MCP transport; logs go to stderr and
			// the optional file.
			logger, err := logging.New(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				File:   cfg.LogFile(),
			})
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
				_ = logger.Close()
			}()

			s, cleanup, err := mbserver.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// Graceful shutdown on interrupt.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stdio := server.NewStdioServer(s)
			stdio.SetErrorLogger(zap.NewStdLog(logger.Underlying()))
			logger.Info(ctx, "serving on stdio", zap.String("version", mbserver.Version))

			if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
				return fmt.Errorf("serving: %w", err)
			}
			return nil
		},
	}
}
