package analyze

import "strings"

// FindingKind identifies what an analyzer found. The patch generator handles
// the full set exhaustively; report-only kinds carry no suggested fix.
type FindingKind string

const (
	NamingViolation     FindingKind = "naming_violation"
	RedundantIndex      FindingKind = "redundant_index"
	MissingIndex        FindingKind = "missing_index"
	LowSelectivityIndex FindingKind = "low_selectivity_index"
	SchemaIssue         FindingKind = "schema_issue"
)

// IdentKind is the kind of schema identifier a finding or rename refers to.
type IdentKind string

const (
	KindTable            IdentKind = "table"
	KindColumn           IdentKind = "column"
	KindIndex            IdentKind = "index"
	KindUniqueConstraint IdentKind = "unique_constraint"
	KindForeignKey       IdentKind = "foreign_key"
)

// Severity ranks findings for filtering and report grouping.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// AtLeast reports whether s is at or above the given minimum severity.
// Unknown severities rank lowest.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// ParseSeverity normalizes a severity string, defaulting to low.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(s)) {
	case SeverityMedium:
		return SeverityMedium
	case SeverityHigh:
		return SeverityHigh
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityLow
	}
}

// RenameOp is a suggested identifier rename.
type RenameOp struct {
	Kind    IdentKind `yaml:"kind" json:"kind"`
	Table   string    `yaml:"table,omitempty" json:"table,omitempty"` // owning table; empty for table renames
	OldName string    `yaml:"old_name" json:"old_name"`
	NewName string    `yaml:"new_name" json:"new_name"`
}

// IndexAction says what an IndexOp does.
type IndexAction string

const (
	IndexDrop   IndexAction = "drop"
	IndexCreate IndexAction = "create"
)

// IndexOp is a suggested index change.
type IndexOp struct {
	Action  IndexAction `yaml:"action" json:"action"`
	Table   string      `yaml:"table" json:"table"`
	Name    string      `yaml:"name" json:"name"`
	Columns []string    `yaml:"columns,omitempty" json:"columns,omitempty"`
	Unique  bool        `yaml:"unique,omitempty" json:"unique,omitempty"`
}

// Finding is one analyzer observation. A violation is expected output, not an
// error. At most one of Rename/Index is set, matching the finding kind.
type Finding struct {
	Kind     FindingKind `yaml:"kind" json:"kind"`
	Severity Severity    `yaml:"severity" json:"severity"`
	Table    string      `yaml:"table" json:"table"`
	Subject  string      `yaml:"subject" json:"subject"` // the identifier the finding is about
	Detail   string      `yaml:"detail" json:"detail"`
	Rename   *RenameOp   `yaml:"rename,omitempty" json:"rename,omitempty"`
	Index    *IndexOp    `yaml:"index,omitempty" json:"index,omitempty"`
}
