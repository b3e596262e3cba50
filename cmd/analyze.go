package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/engine"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/report"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

var (
	analyzeFormat   string
	analyzeSeverity string
	analyzeSnapshot string
	analyzeOutput   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run schema analyzers against the configured database",
	Long: `Analyze the configured database for naming convention violations,
index problems, and table setting issues. Subcommands run a single
analyzer; "analyze all" runs every analyzer in one pass.

With --snapshot the analyzers read a schema snapshot YAML produced by
"discover" instead of connecting to the database.`,
}

var analyzeNamingCmd = &cobra.Command{
	Use:   "naming",
	Short: "Check table, column, index, and constraint names",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(func(a *engine.Analysis) {
			a.Indexes, a.Schema = nil, nil
		})
	},
}

var analyzeIndexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Check for redundant, missing, and low-selectivity indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(func(a *engine.Analysis) {
			a.Naming, a.Schema = nil, nil
		})
	},
}

var analyzeSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check engines, charsets, primary keys, and auto-increment headroom",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(func(a *engine.Analysis) {
			a.Naming, a.Indexes = nil, nil
		})
	},
}

var analyzeAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every analyzer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(nil)
	},
}

func runAnalyze(narrow func(*engine.Analysis)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeSeverity != "" {
		cfg.Analysis.MinSeverity = analyzeSeverity
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	eng := engine.New(cfg, logger)

	var snap *schema.Snapshot
	if analyzeSnapshot != "" {
		snap, err = schema.LoadYAML(analyzeSnapshot)
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}
	} else {
		snap, err = eng.Snapshot(context.Background())
		if err != nil {
			return fmt.Errorf("building snapshot: %w", err)
		}
	}

	a := eng.Analyze(snap)
	if narrow != nil {
		narrow(a)
	}

	min := analyze.ParseSeverity(cfg.Analysis.MinSeverity)
	var out []byte
	switch analyzeFormat {
	case "json":
		out, err = report.JSON(a)
		if err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
	case "markdown", "":
		out = []byte(report.Markdown(a, min))
	default:
		return fmt.Errorf("unknown format %q (want markdown or json)", analyzeFormat)
	}

	if analyzeOutput != "" {
		if err := os.WriteFile(analyzeOutput, out, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", analyzeOutput)
	} else {
		fmt.Print(string(out))
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, report.TerminalSummary(a))
	return nil
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeFormat, "format", "markdown", "report format (markdown, json)")
	analyzeCmd.PersistentFlags().StringVar(&analyzeSeverity, "min-severity", "", "minimum severity to report (low, medium, high, critical)")
	analyzeCmd.PersistentFlags().StringVar(&analyzeSnapshot, "snapshot", "", "analyze a schema snapshot YAML instead of connecting")
	analyzeCmd.PersistentFlags().StringVarP(&analyzeOutput, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.AddCommand(analyzeNamingCmd, analyzeIndexesCmd, analyzeSchemaCmd, analyzeAllCmd)
	rootCmd.AddCommand(analyzeCmd)
}
