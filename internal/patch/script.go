package patch

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var phaseHeaders = []struct {
	phase Phase
	title string
}{
	{PhaseIndexDrop, "INDEX DROPS"},
	{PhaseTableRename, "TABLE RENAMES"},
	{PhaseColumnRename, "COLUMN RENAMES"},
	{PhaseIndexRename, "CONSTRAINT AND INDEX RENAMES"},
	{PhaseIndexCreate, "INDEX CREATES"},
}

// Render returns the script as reviewable SQL text, grouped by phase with the
// originating rationale as a comment above each statement.
func (s *Script) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Schema patch for database: %s\n", s.Database)
	fmt.Fprintf(&b, "-- Generated on: %s\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("-- WARNING: review and test these statements before applying them.\n")
	fmt.Fprintf(&b, "USE %s;\n", quote(s.Database))

	for _, ph := range phaseHeaders {
		stmts := s.phase(ph.phase)
		if len(stmts) == 0 {
			continue
		}
		b.WriteString("\n-- ============================================\n")
		fmt.Fprintf(&b, "-- %s\n", ph.title)
		b.WriteString("-- ============================================\n")
		for _, st := range stmts {
			if st.Rationale != "" {
				fmt.Fprintf(&b, "-- %s\n", st.Rationale)
			}
			b.WriteString(st.SQL)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *Script) phase(p Phase) []Statement {
	var out []Statement
	for _, st := range s.Statements {
		if st.Phase == p {
			out = append(out, st)
		}
	}
	return out
}

// Filename returns a timestamped patch filename, e.g.
// patch_shop_comprehensive_20240131_154500.sql.
func (s *Script) Filename(patchType string) string {
	return fmt.Sprintf("patch_%s_%s_%s.sql", s.Database, patchType, s.GeneratedAt.Format("20060102_150405"))
}

// ManifestYAML returns the statement manifest: the ordered list of statements
// with their identifiers and rationales.
func (s *Script) ManifestYAML() ([]byte, error) {
	return yaml.Marshal(s)
}
