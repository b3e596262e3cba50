package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	version  = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "mysql-analyzer",
	Short: "MySQL schema analyzer and refactoring assistant",
	Long: `mysql-analyzer inspects a MySQL 8.0 schema for naming convention
violations, redundant or missing indexes, and risky table settings, and
generates ordered SQL patches that fix what it finds.

Run "mysql-analyzer serve" to expose the analyzers as JSON-RPC tools on
stdin/stdout.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.mysql-analyzer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig loads the config file and applies the --log-level override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.Setup(cfg.Logging.Level, config.ExpandHome(cfg.Logging.Directory))
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return logger, nil
}
