// Package report renders analysis results for humans: a markdown report, a
// JSON document for tooling, and a styled terminal summary.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/engine"
)

var kindTitles = map[analyze.FindingKind]string{
	analyze.NamingViolation:     "Naming violation",
	analyze.RedundantIndex:      "Redundant index",
	analyze.MissingIndex:        "Missing index",
	analyze.LowSelectivityIndex: "Low-selectivity index",
	analyze.SchemaIssue:         "Schema issue",
}

// Markdown renders the full analysis as a markdown report. Findings below
// the minimum severity are omitted from the detail section but still counted
// in the summary.
func Markdown(a *engine.Analysis, minSeverity analyze.Severity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Schema Analysis Report: %s\n\n", a.Database)
	fmt.Fprintf(&b, "Generated: %s\n\n", a.GeneratedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("Conventions: tables CamelCase, columns snake_case, indexes idx_/uk_/fk_ prefixed.\n\n")

	counts := a.CountBySeverity()
	total := 0
	for _, n := range counts {
		total += n
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Tables analyzed: %d\n", len(a.Snapshot.Tables))
	fmt.Fprintf(&b, "- Total findings: %d\n", total)
	fmt.Fprintf(&b, "  - Critical: %d\n", counts[analyze.SeverityCritical])
	fmt.Fprintf(&b, "  - High: %d\n", counts[analyze.SeverityHigh])
	fmt.Fprintf(&b, "  - Medium: %d\n", counts[analyze.SeverityMedium])
	fmt.Fprintf(&b, "  - Low: %d\n", counts[analyze.SeverityLow])
	b.WriteString("\n")

	visible := engine.FilterMin(a.Findings(), minSeverity)
	if len(visible) == 0 {
		b.WriteString("## All clear\n\nEvery table, column, and index follows the enforced conventions.\n")
		return b.String()
	}

	b.WriteString("## Findings\n\n")
	for _, table := range tableOrder(visible) {
		fmt.Fprintf(&b, "### Table `%s`\n\n", table)
		for _, f := range visible {
			if f.Table != table {
				continue
			}
			fmt.Fprintf(&b, "- **%s** [%s]: %s\n", kindTitles[f.Kind], f.Severity, f.Detail)
			if f.Rename != nil {
				fmt.Fprintf(&b, "  - suggested: rename `%s` to `%s`\n", f.Rename.OldName, f.Rename.NewName)
			}
			if f.Index != nil {
				switch f.Index.Action {
				case analyze.IndexDrop:
					fmt.Fprintf(&b, "  - suggested: drop index `%s`\n", f.Index.Name)
				case analyze.IndexCreate:
					fmt.Fprintf(&b, "  - suggested: create index `%s` on (%s)\n", f.Index.Name, strings.Join(f.Index.Columns, ", "))
				}
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Conventions Reference\n\n")
	b.WriteString("- Tables: CamelCase (`UserProfiles`, `OrderItems`)\n")
	b.WriteString("- Columns: snake_case (`user_id`, `created_at`)\n")
	b.WriteString("- Unique constraints: `uk_<table>_<columns>`\n")
	b.WriteString("- Regular indexes: `idx_<table>_<columns>`\n")
	b.WriteString("- Foreign keys and their lookup indexes: `fk_<table>_<columns>`\n")
	return b.String()
}

// JSON renders the analysis as an indented JSON document.
func JSON(a *engine.Analysis) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// TerminalSummary renders a short, styled summary for interactive use.
func TerminalSummary(a *engine.Analysis) string {
	counts := a.CountBySeverity()
	total := 0
	for _, n := range counts {
		total += n
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Schema analysis: %s", a.Database)))
	fmt.Fprintf(&b, "\n%d tables, %d findings\n", len(a.Snapshot.Tables), total)
	if total == 0 {
		b.WriteString(lowStyle.Render("all clear"))
		b.WriteString("\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  %s  %d\n", criticalStyle.Render("critical"), counts[analyze.SeverityCritical])
	fmt.Fprintf(&b, "  %s      %d\n", highStyle.Render("high"), counts[analyze.SeverityHigh])
	fmt.Fprintf(&b, "  %s    %d\n", mediumStyle.Render("medium"), counts[analyze.SeverityMedium])
	fmt.Fprintf(&b, "  %s       %d\n", lowStyle.Render("low"), counts[analyze.SeverityLow])
	return b.String()
}

func tableOrder(findings []analyze.Finding) []string {
	seen := make(map[string]bool)
	var tables []string
	for _, f := range findings {
		if !seen[f.Table] {
			seen[f.Table] = true
			tables = append(tables, f.Table)
		}
	}
	sort.Strings(tables)
	return tables
}
