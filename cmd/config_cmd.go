package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and validate the analyzer configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fmt.Println("Current configuration:")
		fmt.Println()
		fmt.Printf("  Database:\n")
		fmt.Printf("    Type:              %s\n", cfg.Database.Type)
		fmt.Printf("    Host:              %s\n", cfg.Database.Host)
		fmt.Printf("    Port:              %d\n", cfg.Database.Port)
		fmt.Printf("    Database:          %s\n", cfg.Database.Database)
		fmt.Printf("    User:              %s\n", cfg.Database.User)
		fmt.Printf("    Password:          %s\n", maskSecret(cfg.Database.Password))
		fmt.Printf("    Charset:           %s\n", cfg.Database.Charset)
		fmt.Println()
		fmt.Printf("  Analysis:\n")
		fmt.Printf("    Max identifier:    %d\n", cfg.Analysis.MaxIdentifierLength)
		fmt.Printf("    Min severity:      %s\n", cfg.Analysis.MinSeverity)
		fmt.Printf("    Selectivity rows:  %d\n", cfg.Analysis.MinRowsForSelectivity)
		fmt.Printf("    Selectivity:       %.2f\n", cfg.Analysis.SelectivityThreshold)
		fmt.Println()
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level:             %s\n", cfg.Logging.Level)
		fmt.Printf("    Directory:         %s\n", cfg.Logging.Directory)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		fmt.Println("Configuration is valid.")
		return nil
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
