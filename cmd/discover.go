package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/discovery"
)

var (
	discoverScript bool
	discoverOutput string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Snapshot the database schema",
	Long: `Connect to the configured database and extract schema metadata:
tables, columns, indexes, foreign keys, engines, charsets, and row
statistics. The snapshot is written as YAML and can be fed back to
"analyze" and "patch" with --snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if discoverScript {
			return runDiscoverScript()
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		p, err := discovery.New(&cfg.Database)
		if err != nil {
			return fmt.Errorf("initializing provider: %w", err)
		}
		defer p.Close()

		ctx := context.Background()

		fmt.Printf("Connecting to %s at %s:%d/%s...\n",
			cfg.Database.Type, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
		if err := p.Connect(ctx); err != nil {
			return fmt.Errorf("connecting: %w", err)
		}

		fmt.Println("Reading schema metadata...")
		snap, err := discovery.Snapshot(ctx, p, cfg.Database.Host)
		if err != nil {
			return fmt.Errorf("building snapshot: %w", err)
		}
		logger.Info("snapshot complete", "database", snap.Database, "tables", len(snap.Tables))

		fmt.Println(snap.Summary())

		outputPath := discoverOutput
		if outputPath == "" {
			outputPath = fmt.Sprintf("%s-schema.yaml", snap.Database)
		}
		if err := snap.WriteYAML(outputPath); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		fmt.Printf("\nSnapshot written to %s\n", outputPath)

		return nil
	},
}

// runDiscoverScript emits a SQL script that produces the snapshot YAML on a
// host with no network path to the analyzer.
func runDiscoverScript() error {
	database := ""
	if cfg, err := config.Load(cfgFile); err == nil {
		database = cfg.Database.Database
	}

	sg := &discovery.ScriptGenerator{Database: database}
	script := sg.GenerateScript()

	if discoverOutput == "" {
		fmt.Print(script)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(discoverOutput), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(discoverOutput, []byte(script), 0o644); err != nil {
		return fmt.Errorf("writing script: %w", err)
	}
	fmt.Printf("Discovery script written to %s\n", discoverOutput)

	wrapperPath := discoverOutput[:len(discoverOutput)-len(filepath.Ext(discoverOutput))] + ".sh"
	if err := os.WriteFile(wrapperPath, []byte(sg.GenerateShellWrapper()), 0o755); err != nil {
		return fmt.Errorf("writing wrapper: %w", err)
	}
	fmt.Printf("Shell wrapper written to %s\n", wrapperPath)
	return nil
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverScript, "script", false, "generate an offline discovery SQL script")
	discoverCmd.Flags().StringVarP(&discoverOutput, "output", "o", "", "output path (default: <database>-schema.yaml)")
	rootCmd.AddCommand(discoverCmd)
}
