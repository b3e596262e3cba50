package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/engine"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

var (
	patchType     string
	patchSnapshot string
	patchDir      string
	patchStdout   bool
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Generate an ordered SQL patch from analyzer findings",
	Long: `Run the naming and index analyzers and generate a single SQL patch
that fixes the findings: index drops first, then table renames, column
renames, constraint and index renames, and finally index creates.

The patch is written alongside a YAML manifest describing every
statement. Nothing is executed against the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		eng := engine.New(cfg, logger)

		var snap *schema.Snapshot
		if patchSnapshot != "" {
			snap, err = schema.LoadYAML(patchSnapshot)
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
		switch patchType {
		case "naming":
			a.Indexes = nil
		case "indexes":
			a.Naming = nil
		case "all", "":
			patchType = "all"
		default:
			return fmt.Errorf("unknown patch type %q (want naming, indexes, or all)", patchType)
		}

		script, err := eng.GeneratePatch(a)
		if err != nil {
			return fmt.Errorf("generating patch: %w", err)
		}
		if len(script.Statements) == 0 {
			fmt.Println("No fixable findings; nothing to patch.")
			return nil
		}

		if patchStdout {
			fmt.Print(script.Render())
			return nil
		}

		if err := os.MkdirAll(patchDir, 0o755); err != nil {
			return fmt.Errorf("creating patch directory: %w", err)
		}
		sqlPath := filepath.Join(patchDir, script.Filename(patchType))
		if err := os.WriteFile(sqlPath, []byte(script.Render()), 0o644); err != nil {
			return fmt.Errorf("writing patch: %w", err)
		}

		manifest, err := script.ManifestYAML()
		if err != nil {
			return fmt.Errorf("rendering manifest: %w", err)
		}
		manifestPath := sqlPath[:len(sqlPath)-len(".sql")] + ".yaml"
		if err := os.WriteFile(manifestPath, manifest, 0o644); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}

		fmt.Printf("Patch written to %s (%d statements)\n", sqlPath, len(script.Statements))
		fmt.Printf("Manifest written to %s\n", manifestPath)
		fmt.Println("\nReview the patch before applying it. Statements must run in order.")
		return nil
	},
}

func init() {
	patchCmd.Flags().StringVar(&patchType, "type", "all", "findings to patch (naming, indexes, all)")
	patchCmd.Flags().StringVar(&patchSnapshot, "snapshot", "", "generate from a schema snapshot YAML instead of connecting")
	patchCmd.Flags().StringVarP(&patchDir, "output-dir", "o", "patches", "directory for the patch and manifest")
	patchCmd.Flags().BoolVar(&patchStdout, "stdout", false, "print the patch instead of writing files")
	rootCmd.AddCommand(patchCmd)
}
