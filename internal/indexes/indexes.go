package indexes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/naming"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

// Analyzer inspects each table's index set for redundant indexes, uncovered
// foreign-key columns, and low-selectivity indexes.
type Analyzer struct {
	rules naming.Rules

	// MinRowsForSelectivity gates the selectivity check: small tables make
	// cardinality stats meaningless.
	MinRowsForSelectivity int64

	// SelectivityThreshold is the average-cardinality / row-count ratio
	// below which a non-unique index is reported.
	SelectivityThreshold float64
}

// NewAnalyzer creates an index analyzer with the given naming rules, which it
// uses to name suggested indexes.
func NewAnalyzer(rules naming.Rules) *Analyzer {
	return &Analyzer{
		rules:                 rules,
		MinRowsForSelectivity: 1000,
		SelectivityThreshold:  0.1,
	}
}

// Analyze walks every table in the snapshot. Findings are ordered by
// (table name, index name) so repeated runs produce identical output.
func (a *Analyzer) Analyze(snap *schema.Snapshot) []analyze.Finding {
	var findings []analyze.Finding
	for i := range snap.Tables {
		t := &snap.Tables[i]
		findings = append(findings, a.analyzeRedundancy(t)...)
		findings = append(findings, a.analyzeCoverage(t)...)
		findings = append(findings, a.analyzeSelectivity(t)...)
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Table != findings[j].Table {
			return findings[i].Table < findings[j].Table
		}
		return findings[i].Subject < findings[j].Subject
	})
	return findings
}

// analyzeRedundancy reports indexes whose coverage is subsumed by another
// index on the same table. An index A is redundant with respect to B when A's
// column sequence is a prefix of B's and A adds no uniqueness guarantee B
// lacks. Exact duplicates keep the lexicographically earlier name; the later
// one is flagged.
func (a *Analyzer) analyzeRedundancy(t *schema.Table) []analyze.Finding {
	var findings []analyze.Finding
	flagged := make(map[string]bool)

	for i := range t.Indexes {
		ia := &t.Indexes[i]
		if ia.Primary || flagged[ia.Name] {
			continue
		}
		for j := range t.Indexes {
			ib := &t.Indexes[j]
			if i == j || ib.Primary || flagged[ib.Name] {
				continue
			}
			covered, why := redundantWith(ia, ib)
			if !covered {
				continue
			}
			flagged[ia.Name] = true
			findings = append(findings, analyze.Finding{
				Kind:     analyze.RedundantIndex,
				Severity: analyze.SeverityMedium,
				Table:    t.Name,
				Subject:  ia.Name,
				Detail: fmt.Sprintf("index %q (%s) is %s by %q (%s)",
					ia.Name, strings.Join(ia.Columns, ", "), why, ib.Name, strings.Join(ib.Columns, ", ")),
				Index: &analyze.IndexOp{
					Action:  analyze.IndexDrop,
					Table:   t.Name,
					Name:    ia.Name,
					Columns: ia.Columns,
					Unique:  ia.Unique,
				},
			})
			break
		}
	}
	return findings
}

// redundantWith reports whether dropping a keeps every guarantee b provides.
func redundantWith(a, b *schema.Index) (bool, string) {
	if !isPrefix(a.Columns, b.Columns) {
		return false, ""
	}
	equal := len(a.Columns) == len(b.Columns)

	// Exact duplicate: same columns, same uniqueness. Drop the
	// lexicographically later name.
	if equal && a.Unique == b.Unique {
		if a.Name > b.Name {
			return true, "an exact duplicate, covered"
		}
		return false, ""
	}

	// A unique index guarantees uniqueness a longer covering index does not;
	// never drop it in favor of one.
	if a.Unique {
		return false, ""
	}

	// Non-unique prefix of a longer index, or of an identical unique index.
	if equal {
		return true, "made redundant"
	}
	return true, "a strict prefix, covered"
}

func isPrefix(short, long []string) bool {
	if len(short) > len(long) {
		return false
	}
	for i := range short {
		if short[i] != long[i] {
			return false
		}
	}
	return true
}

// analyzeCoverage reports foreign-key columns with no index whose leading
// column matches. Only the leading column of a composite foreign key is
// considered; general workload-based recommendation is out of scope.
func (a *Analyzer) analyzeCoverage(t *schema.Table) []analyze.Finding {
	var findings []analyze.Finding
	seen := make(map[string]bool)

	for i := range t.ForeignKeys {
		fk := &t.ForeignKeys[i]
		if len(fk.Columns) == 0 {
			continue
		}
		lead := fk.Columns[0]
		if seen[lead] || t.HasIndexLeadingOn(lead) {
			continue
		}
		seen[lead] = true
		name := a.rules.IndexName(naming.PrefixForeignKey, t.Name, []string{lead})
		findings = append(findings, analyze.Finding{
			Kind:     analyze.MissingIndex,
			Severity: analyze.SeverityMedium,
			Table:    t.Name,
			Subject:  name,
			Detail: fmt.Sprintf("foreign key %q column %q on table %q has no index with a matching leading column",
				fk.Name, lead, t.Name),
			Index: &analyze.IndexOp{
				Action:  analyze.IndexCreate,
				Table:   t.Name,
				Name:    name,
				Columns: []string{lead},
			},
		})
	}
	return findings
}

// analyzeSelectivity reports non-unique indexes whose cardinality stats show
// poor selectivity. Report-only: cardinality is an estimate, so no drop is
// suggested.
func (a *Analyzer) analyzeSelectivity(t *schema.Table) []analyze.Finding {
	if t.RowCount < a.MinRowsForSelectivity {
		return nil
	}
	var findings []analyze.Finding
	for i := range t.Indexes {
		idx := &t.Indexes[i]
		if idx.Primary || idx.Unique || len(idx.Cardinality) == 0 {
			continue
		}
		var sum int64
		for _, c := range idx.Cardinality {
			sum += c
		}
		avg := float64(sum) / float64(len(idx.Cardinality))
		selectivity := avg / float64(t.RowCount)
		if selectivity >= a.SelectivityThreshold {
			continue
		}
		findings = append(findings, analyze.Finding{
			Kind:     analyze.LowSelectivityIndex,
			Severity: analyze.SeverityMedium,
			Table:    t.Name,
			Subject:  idx.Name,
			Detail: fmt.Sprintf("index %q on table %q has low selectivity (%.1f%%); it may cost more to maintain than it saves",
				idx.Name, t.Name, selectivity*100),
		})
	}
	return findings
}
