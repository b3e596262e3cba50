package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a snapshot from a YAML file.
func LoadYAML(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	s := &Snapshot{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return s, nil
}

// WriteYAML writes the snapshot to a YAML file at the given path.
func (s *Snapshot) WriteYAML(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Summary returns a human-readable summary of the snapshot.
func (s *Snapshot) Summary() string {
	var totalCols, totalIdx, totalFKs int
	var totalRows int64

	for i := range s.Tables {
		t := &s.Tables[i]
		totalCols += len(t.Columns)
		totalIdx += len(t.Indexes)
		totalFKs += len(t.ForeignKeys)
		totalRows += t.RowCount
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s (%s)\n", s.Database, s.Source)
	fmt.Fprintf(&b, "  Tables:       %d\n", len(s.Tables))
	fmt.Fprintf(&b, "  Columns:      %d\n", totalCols)
	fmt.Fprintf(&b, "  Indexes:      %d\n", totalIdx)
	fmt.Fprintf(&b, "  Foreign keys: %d\n", totalFKs)
	fmt.Fprintf(&b, "  Est. rows:    %d\n", totalRows)
	return b.String()
}
