// Package patch turns analyzer findings into an ordered SQL script. The
// statements are advisory text for an operator to review; nothing here ever
// executes against a live database.
package patch

import (
	"fmt"
	"strings"
	"time"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/rename"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

// Phase labels the fixed, safe application order: drops never destroy data
// and free names for reuse, renames run on live names, creates run last so
// new indexes are built against final table and column names.
type Phase string

const (
	PhaseIndexDrop    Phase = "index_drop"
	PhaseTableRename  Phase = "table_rename"
	PhaseColumnRename Phase = "column_rename"
	PhaseIndexRename  Phase = "index_rename"
	PhaseIndexCreate  Phase = "index_create"
)

// Statement is one SQL statement plus the identifiers and rationale of the
// finding it fixes, so a caller can present a fix-to-statement mapping.
type Statement struct {
	SQL        string            `yaml:"sql" json:"sql"`
	Phase      Phase             `yaml:"phase" json:"phase"`
	IdentKind  analyze.IdentKind `yaml:"identifier_kind" json:"identifier_kind"`
	Table      string            `yaml:"table,omitempty" json:"table,omitempty"`
	OldName    string            `yaml:"old_name,omitempty" json:"old_name,omitempty"`
	NewName    string            `yaml:"new_name,omitempty" json:"new_name,omitempty"`
	Definition string            `yaml:"definition,omitempty" json:"definition,omitempty"`
	Rationale  string            `yaml:"rationale" json:"rationale"`
}

// Script is an ordered patch for one database.
type Script struct {
	Database    string      `yaml:"database" json:"database"`
	GeneratedAt time.Time   `yaml:"generated_at" json:"generated_at"`
	Statements  []Statement `yaml:"statements" json:"statements"`
}

// GenerationError means no script could be produced. Failure is atomic: a
// partially safe patch is worse than none, so no partial script accompanies
// the error.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generating patch: %s: %v", e.Reason, e.Err)
	}
	return "generating patch: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generator builds patch scripts from findings. It is stateless; every call
// derives everything from its arguments.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a patch generator.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Generate consumes findings against the snapshot they were derived from and
// emits one statement per fix in dependency-safe order: index drops, table
// renames, column renames, constraint/index renames, index creates.
func (g *Generator) Generate(snap *schema.Snapshot, findings []analyze.Finding) (*Script, error) {
	var renames []analyze.RenameOp
	var drops, creates []analyze.Finding
	renameByKey := make(map[string]analyze.Finding)

	for _, f := range findings {
		switch f.Kind {
		case analyze.NamingViolation:
			if f.Rename == nil {
				continue
			}
			if err := g.checkRenameSubject(snap, f); err != nil {
				return nil, err
			}
			renames = append(renames, *f.Rename)
			renameByKey[renameKey(*f.Rename)] = f
		case analyze.RedundantIndex:
			if f.Index == nil || f.Index.Action != analyze.IndexDrop {
				continue
			}
			if err := g.checkIndexSubject(snap, f); err != nil {
				return nil, err
			}
			drops = append(drops, f)
		case analyze.MissingIndex:
			if f.Index == nil || f.Index.Action != analyze.IndexCreate {
				continue
			}
			if err := g.checkCreateColumns(snap, f); err != nil {
				return nil, err
			}
			creates = append(creates, f)
		case analyze.LowSelectivityIndex, analyze.SchemaIssue:
			// report-only kinds carry no fix
		default:
			return nil, &GenerationError{Reason: fmt.Sprintf("unknown finding kind %q", f.Kind)}
		}
	}

	// An index that is being dropped must not also be renamed.
	dropped := make(map[string]bool)
	for _, f := range drops {
		dropped[f.Index.Table+"."+f.Index.Name] = true
	}
	kept := renames[:0]
	for _, op := range renames {
		if (op.Kind == analyze.KindIndex || op.Kind == analyze.KindUniqueConstraint) &&
			dropped[op.Table+"."+op.OldName] {
			continue
		}
		kept = append(kept, op)
	}
	renames = kept

	plan, err := rename.Build(snap, renames)
	if err != nil {
		return nil, &GenerationError{Reason: "rename set is not applicable", Err: err}
	}

	script := &Script{Database: snap.Database, GeneratedAt: g.now()}

	for _, f := range drops {
		op := f.Index
		script.Statements = append(script.Statements, Statement{
			SQL:       fmt.Sprintf("ALTER TABLE %s DROP INDEX %s;", quote(op.Table), quote(op.Name)),
			Phase:     PhaseIndexDrop,
			IdentKind: analyze.KindIndex,
			Table:     op.Table,
			OldName:   op.Name,
			Rationale: f.Detail,
		})
	}

	for _, op := range plan.Tables {
		script.Statements = append(script.Statements, Statement{
			SQL:       fmt.Sprintf("RENAME TABLE %s TO %s;", quote(op.OldName), quote(op.NewName)),
			Phase:     PhaseTableRename,
			IdentKind: analyze.KindTable,
			OldName:   op.OldName,
			NewName:   op.NewName,
			Rationale: renameByKey[renameKey(op)].Detail,
		})
	}

	for _, op := range plan.Columns {
		table := plan.TableName(op.Table)
		script.Statements = append(script.Statements, Statement{
			SQL:       fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;", quote(table), quote(op.OldName), quote(op.NewName)),
			Phase:     PhaseColumnRename,
			IdentKind: analyze.KindColumn,
			Table:     table,
			OldName:   op.OldName,
			NewName:   op.NewName,
			Rationale: renameByKey[renameKey(op)].Detail,
		})
	}

	for _, op := range plan.Indexes {
		table := plan.TableName(op.Table)
		script.Statements = append(script.Statements, Statement{
			SQL:       fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s;", quote(table), quote(op.OldName), quote(op.NewName)),
			Phase:     PhaseIndexRename,
			IdentKind: op.Kind,
			Table:     table,
			OldName:   op.OldName,
			NewName:   op.NewName,
			Rationale: renameByKey[renameKey(op)].Detail,
		})
	}

	for _, op := range plan.ForeignKeys {
		stmt, err := g.foreignKeyRename(snap, plan, op)
		if err != nil {
			return nil, err
		}
		stmt.Rationale = renameByKey[renameKey(op)].Detail
		script.Statements = append(script.Statements, *stmt)
	}

	for _, f := range creates {
		op := f.Index
		table := plan.TableName(op.Table)
		cols := make([]string, len(op.Columns))
		for i, c := range op.Columns {
			cols[i] = quote(plan.ColumnName(op.Table, c))
		}
		unique := ""
		if op.Unique {
			unique = "UNIQUE "
		}
		def := fmt.Sprintf("%sINDEX %s ON %s (%s)", unique, quote(op.Name), quote(table), strings.Join(cols, ", "))
		script.Statements = append(script.Statements, Statement{
			SQL:        fmt.Sprintf("CREATE %s;", def),
			Phase:      PhaseIndexCreate,
			IdentKind:  analyze.KindIndex,
			Table:      table,
			NewName:    op.Name,
			Definition: def,
			Rationale:  f.Detail,
		})
	}

	return script, nil
}

// foreignKeyRename re-creates a foreign key under its new name. MySQL has no
// constraint rename, so the fix is a single DROP FOREIGN KEY + ADD CONSTRAINT
// statement referencing final table and column names.
func (g *Generator) foreignKeyRename(snap *schema.Snapshot, plan *rename.Plan, op analyze.RenameOp) (*Statement, error) {
	t := snap.Table(op.Table)
	if t == nil {
		return nil, &GenerationError{Reason: fmt.Sprintf("foreign key rename references unknown table %q (stale snapshot?)", op.Table)}
	}
	var fk *schema.ForeignKey
	for i := range t.ForeignKeys {
		if t.ForeignKeys[i].Name == op.OldName {
			fk = &t.ForeignKeys[i]
			break
		}
	}
	if fk == nil {
		return nil, &GenerationError{Reason: fmt.Sprintf("foreign key %q not found on table %q (stale snapshot?)", op.OldName, op.Table)}
	}

	table := plan.TableName(op.Table)
	local := make([]string, len(fk.Columns))
	for i, c := range fk.Columns {
		local[i] = quote(plan.ColumnName(op.Table, c))
	}
	refTable := plan.TableName(fk.ReferencedTable)
	refCols := make([]string, len(fk.ReferencedColumns))
	for i, c := range fk.ReferencedColumns {
		refCols[i] = quote(plan.ColumnName(fk.ReferencedTable, c))
	}

	sql := fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s, ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
		quote(table), quote(op.OldName), quote(op.NewName),
		strings.Join(local, ", "), quote(refTable), strings.Join(refCols, ", "))
	return &Statement{
		SQL:       sql,
		Phase:     PhaseIndexRename,
		IdentKind: analyze.KindForeignKey,
		Table:     table,
		OldName:   op.OldName,
		NewName:   op.NewName,
	}, nil
}

func (g *Generator) checkRenameSubject(snap *schema.Snapshot, f analyze.Finding) error {
	op := f.Rename
	switch op.Kind {
	case analyze.KindTable:
		if snap.Table(op.OldName) == nil {
			return &GenerationError{Reason: fmt.Sprintf("rename references unknown table %q (stale snapshot?)", op.OldName)}
		}
	case analyze.KindColumn:
		t := snap.Table(op.Table)
		if t == nil || t.Column(op.OldName) == nil {
			return &GenerationError{Reason: fmt.Sprintf("rename references unknown column %q on table %q (stale snapshot?)", op.OldName, op.Table)}
		}
	case analyze.KindIndex, analyze.KindUniqueConstraint:
		t := snap.Table(op.Table)
		if t == nil || t.Index(op.OldName) == nil {
			return &GenerationError{Reason: fmt.Sprintf("rename references unknown index %q on table %q (stale snapshot?)", op.OldName, op.Table)}
		}
	}
	return nil
}

func (g *Generator) checkIndexSubject(snap *schema.Snapshot, f analyze.Finding) error {
	t := snap.Table(f.Index.Table)
	if t == nil || t.Index(f.Index.Name) == nil {
		return &GenerationError{Reason: fmt.Sprintf("drop references unknown index %q on table %q (stale snapshot?)", f.Index.Name, f.Index.Table)}
	}
	return nil
}

func (g *Generator) checkCreateColumns(snap *schema.Snapshot, f analyze.Finding) error {
	t := snap.Table(f.Index.Table)
	if t == nil {
		return &GenerationError{Reason: fmt.Sprintf("create references unknown table %q (stale snapshot?)", f.Index.Table)}
	}
	for _, c := range f.Index.Columns {
		if t.Column(c) == nil {
			return &GenerationError{Reason: fmt.Sprintf("create references unknown column %q on table %q (stale snapshot?)", c, f.Index.Table)}
		}
	}
	return nil
}

func renameKey(op analyze.RenameOp) string {
	return string(op.Kind) + "/" + op.Table + "/" + op.OldName
}

func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
