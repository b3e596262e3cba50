package naming

import (
	"fmt"
	"sort"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

// Analyzer walks a schema snapshot and emits one finding per identifier that
// deviates from the enforced conventions. It has no side effects and holds no
// state between runs.
type Analyzer struct {
	rules Rules
}

// NewAnalyzer creates a naming analyzer with the given rules.
func NewAnalyzer(rules Rules) *Analyzer {
	return &Analyzer{rules: rules}
}

// Rules returns the analyzer's rule set.
func (a *Analyzer) Rules() Rules {
	return a.rules
}

// Analyze checks every table, column, index, and foreign-key name in the
// snapshot. Findings are sorted by (table, kind, identifier) so repeated runs
// against an unchanged snapshot produce identical output.
func (a *Analyzer) Analyze(snap *schema.Snapshot) []analyze.Finding {
	var findings []analyze.Finding

	for i := range snap.Tables {
		t := &snap.Tables[i]

		if a.rules.Violates(t.Name, analyze.KindTable) {
			canonical := a.rules.CanonicalTable(t.Name)
			findings = append(findings, analyze.Finding{
				Kind:     analyze.NamingViolation,
				Severity: analyze.SeverityMedium,
				Table:    t.Name,
				Subject:  t.Name,
				Detail:   fmt.Sprintf("table %q does not follow CamelCase convention (expected %q)", t.Name, canonical),
				Rename: &analyze.RenameOp{
					Kind:    analyze.KindTable,
					OldName: t.Name,
					NewName: canonical,
				},
			})
		}

		for j := range t.Columns {
			c := &t.Columns[j]
			if !a.rules.Violates(c.Name, analyze.KindColumn) {
				continue
			}
			canonical := a.rules.CanonicalColumn(c.Name)
			findings = append(findings, analyze.Finding{
				Kind:     analyze.NamingViolation,
				Severity: analyze.SeverityLow,
				Table:    t.Name,
				Subject:  c.Name,
				Detail:   fmt.Sprintf("column %q on table %q does not follow snake_case convention (expected %q)", c.Name, t.Name, canonical),
				Rename: &analyze.RenameOp{
					Kind:    analyze.KindColumn,
					Table:   t.Name,
					OldName: c.Name,
					NewName: canonical,
				},
			})
		}

		for j := range t.Indexes {
			idx := &t.Indexes[j]
			if idx.Primary {
				continue
			}
			expected := a.rules.ExpectedIndexName(t.Name, idx)
			if idx.Name == expected {
				continue
			}
			findings = append(findings, analyze.Finding{
				Kind:     analyze.NamingViolation,
				Severity: analyze.SeverityLow,
				Table:    t.Name,
				Subject:  idx.Name,
				Detail:   fmt.Sprintf("index %q on table %q does not follow the %s<table>_<columns> convention (expected %q)", idx.Name, t.Name, IndexPrefix(idx), expected),
				Rename: &analyze.RenameOp{
					Kind:    IndexKind(idx),
					Table:   t.Name,
					OldName: idx.Name,
					NewName: expected,
				},
			})
		}

		for j := range t.ForeignKeys {
			fk := &t.ForeignKeys[j]
			expected := a.rules.ExpectedForeignKeyName(t.Name, fk)
			if fk.Name == expected {
				continue
			}
			findings = append(findings, analyze.Finding{
				Kind:     analyze.NamingViolation,
				Severity: analyze.SeverityLow,
				Table:    t.Name,
				Subject:  fk.Name,
				Detail:   fmt.Sprintf("foreign key %q on table %q does not follow the fk_<table>_<columns> convention (expected %q)", fk.Name, t.Name, expected),
				Rename: &analyze.RenameOp{
					Kind:    analyze.KindForeignKey,
					Table:   t.Name,
					OldName: fk.Name,
					NewName: expected,
				},
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		ka, kb := renameKind(a), renameKind(b)
		if ka != kb {
			return ka < kb
		}
		return a.Subject < b.Subject
	})
	return findings
}

func renameKind(f analyze.Finding) string {
	if f.Rename != nil {
		return string(f.Rename.Kind)
	}
	return string(f.Kind)
}
