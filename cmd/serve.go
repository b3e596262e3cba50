package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzers as JSON-RPC tools on stdin/stdout",
	Long: `Read line-delimited JSON-RPC 2.0 requests from stdin and write one
response per line to stdout. Logs go to stderr and the log directory so
the protocol stream stays clean.

Each tool call takes a fresh schema snapshot, so results always reflect
the live database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(cfg, logger, os.Stdin, os.Stdout)
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server: %w", err)
		}
		logger.Info("tool server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
