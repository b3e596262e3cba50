package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	Long:  `Walk through prompts to create a configuration file at ~/.mysql-analyzer/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		fmt.Println("mysql-analyzer Configuration Setup")
		fmt.Println("==================================")
		fmt.Println()

		fmt.Println("Database")
		fmt.Println("--------")
		dbType := prompt(reader, "Database type (mysql/postgresql)", "mysql")
		host := prompt(reader, "Host", "localhost")
		portStr := prompt(reader, "Port", defaultPort(dbType))
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port: %s", portStr)
		}
		database := prompt(reader, "Database name", "")
		user := prompt(reader, "Username", "")
		password := prompt(reader, "Password", "")
		fmt.Println()

		fmt.Println("Analysis")
		fmt.Println("--------")
		minSeverity := prompt(reader, "Minimum severity to report (low/medium/high/critical)", "low")
		fmt.Println()

		cfg := &config.Config{
			Version: config.CurrentVersion,
			Database: config.DatabaseConfig{
				Type:     dbType,
				Host:     host,
				Port:     port,
				User:     user,
				Password: password,
				Database: database,
			},
			Analysis: config.AnalysisConfig{
				MinSeverity: minSeverity,
			},
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		cfgPath := config.ExpandHome(config.DefaultPath)
		if cfgFile != "" {
			cfgPath = cfgFile
		}

		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Printf("Config written to %s\n", cfgPath)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  mysql-analyzer discover      — Snapshot the database schema")
		fmt.Println("  mysql-analyzer analyze all   — Run every analyzer")
		fmt.Println("  mysql-analyzer patch         — Generate the SQL patch")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func defaultPort(dbType string) string {
	switch dbType {
	case "postgresql":
		return "5432"
	default:
		return "3306"
	}
}
