// Package schemacheck reports table-level deviations from MySQL 8.0 storage
// recommendations: engine, charset, row identity, and auto-increment
// headroom. Findings are report-only; the patch generator never consumes
// them.
package schemacheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

const (
	recommendedEngine    = "InnoDB"
	recommendedCharset   = "utf8mb4"
	recommendedRowFormat = "DYNAMIC"

	maxInt              = 2147483647
	maxIntUnsigned      = 4294967295
	maxSmallint         = 32767
	maxSmallintUnsigned = 65535
	maxTinyint          = 127
	maxTinyintUnsigned  = 255

	// Fragmentation is reported once the reclaimable space is both a
	// meaningful fraction of the table and large enough to matter.
	fragmentationRatio    = 0.2
	fragmentationMinBytes = 10 * 1024 * 1024
)

// Analyzer checks schema-level table settings.
type Analyzer struct {
	// OverflowThreshold is the used fraction of an auto-increment column's
	// integer range above which a finding is emitted.
	OverflowThreshold float64
}

// NewAnalyzer creates a schema compliance analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{OverflowThreshold: 0.7}
}

// Analyze walks every table in the snapshot. Findings are ordered by
// (table, subject) for deterministic output.
func (a *Analyzer) Analyze(snap *schema.Snapshot) []analyze.Finding {
	var findings []analyze.Finding
	for i := range snap.Tables {
		t := &snap.Tables[i]
		findings = append(findings, a.checkEngine(t)...)
		findings = append(findings, a.checkCharset(t)...)
		findings = append(findings, a.checkRowFormat(t)...)
		findings = append(findings, a.checkPrimaryKey(t)...)
		findings = append(findings, a.checkAutoIncrement(t)...)
		findings = append(findings, a.checkFragmentation(t)...)
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Table != findings[j].Table {
			return findings[i].Table < findings[j].Table
		}
		return findings[i].Subject < findings[j].Subject
	})
	return findings
}

func (a *Analyzer) checkEngine(t *schema.Table) []analyze.Finding {
	if t.Engine == "" || strings.EqualFold(t.Engine, recommendedEngine) {
		return nil
	}
	return []analyze.Finding{{
		Kind:     analyze.SchemaIssue,
		Severity: analyze.SeverityHigh,
		Table:    t.Name,
		Subject:  t.Name,
		Detail: fmt.Sprintf("table %q uses the %s engine; %s provides ACID compliance and row-level locking",
			t.Name, t.Engine, recommendedEngine),
	}}
}

func (a *Analyzer) checkCharset(t *schema.Table) []analyze.Finding {
	if t.Collation == "" || strings.HasPrefix(t.Collation, recommendedCharset) {
		return nil
	}
	return []analyze.Finding{{
		Kind:     analyze.SchemaIssue,
		Severity: analyze.SeverityMedium,
		Table:    t.Name,
		Subject:  t.Name,
		Detail: fmt.Sprintf("table %q uses collation %q; %s covers the full Unicode range",
			t.Name, t.Collation, recommendedCharset),
	}}
}

func (a *Analyzer) checkRowFormat(t *schema.Table) []analyze.Finding {
	rf := strings.ToUpper(t.RowFormat)
	if rf == "" || rf == recommendedRowFormat || rf == "COMPRESSED" {
		return nil
	}
	return []analyze.Finding{{
		Kind:     analyze.SchemaIssue,
		Severity: analyze.SeverityLow,
		Table:    t.Name,
		Subject:  t.Name,
		Detail: fmt.Sprintf("table %q uses the %s row format; %s handles variable-length columns better on MySQL 8.0",
			t.Name, rf, recommendedRowFormat),
	}}
}

func (a *Analyzer) checkPrimaryKey(t *schema.Table) []analyze.Finding {
	if t.PrimaryKey() != nil {
		return nil
	}
	for i := range t.Columns {
		if t.Columns[i].Key == "PRI" {
			return nil
		}
	}
	return []analyze.Finding{{
		Kind:     analyze.SchemaIssue,
		Severity: analyze.SeverityHigh,
		Table:    t.Name,
		Subject:  t.Name,
		Detail:   fmt.Sprintf("table %q has no primary key; replication and row-based tooling need one", t.Name),
	}}
}

func (a *Analyzer) checkAutoIncrement(t *schema.Table) []analyze.Finding {
	if t.AutoIncrement <= 0 {
		return nil
	}
	var col *schema.Column
	for i := range t.Columns {
		if strings.Contains(strings.ToLower(t.Columns[i].Extra), "auto_increment") {
			col = &t.Columns[i]
			break
		}
	}
	if col == nil {
		return nil
	}

	// UNSIGNED doubles the usable range and only shows in the full
	// column type, not in DATA_TYPE.
	unsigned := strings.Contains(strings.ToLower(col.ColumnType), "unsigned")

	var max int64
	var next string
	switch strings.ToUpper(col.DataType) {
	case "INT":
		max, next = maxInt, "BIGINT"
		if unsigned {
			max = maxIntUnsigned
		}
	case "SMALLINT":
		max, next = maxSmallint, "INT"
		if unsigned {
			max = maxSmallintUnsigned
		}
	case "TINYINT":
		max, next = maxTinyint, "SMALLINT"
		if unsigned {
			max = maxTinyintUnsigned
		}
	default:
		return nil // BIGINT and friends have headroom to spare
	}

	used := float64(t.AutoIncrement) / float64(max)
	if used < a.OverflowThreshold {
		return nil
	}
	severity := analyze.SeverityHigh
	if used > 0.9 {
		severity = analyze.SeverityCritical
	}
	return []analyze.Finding{{
		Kind:     analyze.SchemaIssue,
		Severity: severity,
		Table:    t.Name,
		Subject:  col.Name,
		Detail: fmt.Sprintf("auto-increment column %q on table %q has used %.1f%% of its %s range; consider %s",
			col.Name, t.Name, used*100, strings.ToUpper(col.DataType), next),
	}}
}

func (a *Analyzer) checkFragmentation(t *schema.Table) []analyze.Finding {
	if t.DataLength <= 0 || t.DataFree <= fragmentationMinBytes {
		return nil
	}
	if float64(t.DataFree)/float64(t.DataLength) <= fragmentationRatio {
		return nil
	}
	return []analyze.Finding{{
		Kind:     analyze.SchemaIssue,
		Severity: analyze.SeverityLow,
		Table:    t.Name,
		Subject:  t.Name,
		Detail: fmt.Sprintf("table %q holds %.1f MB of reclaimable space; OPTIMIZE TABLE would compact it",
			t.Name, float64(t.DataFree)/(1024*1024)),
	}}
}
