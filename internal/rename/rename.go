// Package rename merges independent rename suggestions into one internally
// consistent plan. Renaming a table changes the qualified name every later
// statement must use, two violating names can canonicalize to the same
// target, and a target can already be taken by an untouched identifier; all
// three must be caught before any SQL is emitted.
package rename

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

// ConflictKind classifies why a rename set cannot be applied.
type ConflictKind string

const (
	// DuplicateTarget: two distinct old names map to the same new name.
	DuplicateTarget ConflictKind = "duplicate_target"
	// TargetAlreadyExists: a new name is already held by an identifier that
	// is not itself being renamed.
	TargetAlreadyExists ConflictKind = "target_already_exists"
	// Cycle: renames depend on each other, e.g. two tables being swapped.
	Cycle ConflictKind = "cycle"
)

// ConflictError is fatal to the current patch-generation call. It is never
// auto-resolved: disambiguation needs domain knowledge the analyzer does not
// have, so the full set of offending identifiers is reported instead.
type ConflictError struct {
	Kind        ConflictKind
	Identifiers []string
	Detail      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("rename conflict (%s): %s [%s]", e.Kind, e.Detail, strings.Join(e.Identifiers, ", "))
}

// Plan is a consistent, dependency-ordered set of renames. Each phase slice
// is already in safe application order.
type Plan struct {
	Tables      []analyze.RenameOp
	Columns     []analyze.RenameOp
	Indexes     []analyze.RenameOp // index and unique-constraint renames
	ForeignKeys []analyze.RenameOp

	tableNames  map[string]string
	columnNames map[string]map[string]string // keyed by old table name
}

// TableName returns the final name of a table after the plan applies.
func (p *Plan) TableName(old string) string {
	if n, ok := p.tableNames[old]; ok {
		return n
	}
	return old
}

// ColumnName returns a column's final name. The table is identified by its
// pre-plan name.
func (p *Plan) ColumnName(table, old string) string {
	if cols, ok := p.columnNames[table]; ok {
		if n, ok := cols[old]; ok {
			return n
		}
	}
	return old
}

// Build validates the rename set against the snapshot and produces a plan.
// It fails with a *ConflictError on duplicate targets, shadowed targets, or
// dependency cycles; no partial plan is ever returned.
func Build(snap *schema.Snapshot, ops []analyze.RenameOp) (*Plan, error) {
	plan := &Plan{
		tableNames:  make(map[string]string),
		columnNames: make(map[string]map[string]string),
	}

	groups := groupOps(ops)
	for _, g := range groups {
		if err := checkDuplicateTargets(g); err != nil {
			return nil, err
		}
		if err := checkExisting(snap, g); err != nil {
			return nil, err
		}
		ordered, err := order(g.ops, g.label)
		if err != nil {
			return nil, err
		}
		switch g.kind {
		case analyze.KindTable:
			plan.Tables = append(plan.Tables, ordered...)
			for _, op := range ordered {
				plan.tableNames[op.OldName] = op.NewName
			}
		case analyze.KindColumn:
			plan.Columns = append(plan.Columns, ordered...)
			for _, op := range ordered {
				if plan.columnNames[op.Table] == nil {
					plan.columnNames[op.Table] = make(map[string]string)
				}
				plan.columnNames[op.Table][op.OldName] = op.NewName
			}
		case analyze.KindForeignKey:
			plan.ForeignKeys = append(plan.ForeignKeys, ordered...)
		default: // indexes and unique constraints share the index namespace
			plan.Indexes = append(plan.Indexes, ordered...)
		}
	}

	return plan, nil
}

// group is one (identifier kind, owning table) scope. Indexes and unique
// constraints are merged into a single per-table scope because they share
// MySQL's index namespace; foreign-key constraint names are schema-wide.
type group struct {
	kind  analyze.IdentKind
	table string
	label string
	ops   []analyze.RenameOp
}

func groupOps(ops []analyze.RenameOp) []*group {
	byKey := make(map[string]*group)
	var keys []string
	for _, op := range ops {
		kind := op.Kind
		table := op.Table
		switch kind {
		case analyze.KindTable:
			table = ""
		case analyze.KindUniqueConstraint:
			kind = analyze.KindIndex
		case analyze.KindForeignKey:
			table = ""
		}
		key := string(kind) + "/" + table
		g, ok := byKey[key]
		if !ok {
			label := string(kind)
			if table != "" {
				label = fmt.Sprintf("%s on table %s", kind, table)
			}
			g = &group{kind: kind, table: table, label: label}
			byKey[key] = g
			keys = append(keys, key)
		}
		g.ops = append(g.ops, op)
	}
	sort.Strings(keys)
	out := make([]*group, 0, len(keys))
	for _, k := range keys {
		g := byKey[k]
		sort.Slice(g.ops, func(i, j int) bool { return g.ops[i].OldName < g.ops[j].OldName })
		out = append(out, g)
	}
	return out
}

func checkDuplicateTargets(g *group) error {
	byTarget := make(map[string][]string)
	for _, op := range g.ops {
		byTarget[op.NewName] = append(byTarget[op.NewName], op.OldName)
	}
	var targets []string
	for target, olds := range byTarget {
		if len(olds) > 1 {
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	sort.Strings(targets)
	var idents []string
	for _, target := range targets {
		olds := byTarget[target]
		sort.Strings(olds)
		idents = append(idents, fmt.Sprintf("%s -> %s", strings.Join(olds, ", "), target))
	}
	return &ConflictError{
		Kind:        DuplicateTarget,
		Identifiers: idents,
		Detail:      fmt.Sprintf("multiple %s renames map to the same target name", g.label),
	}
}

// checkExisting rejects targets already held by identifiers of the same kind
// and scope that are not themselves being renamed.
func checkExisting(snap *schema.Snapshot, g *group) error {
	renamed := make(map[string]bool, len(g.ops))
	for _, op := range g.ops {
		renamed[op.OldName] = true
	}
	current := currentNames(snap, g)

	var idents []string
	for _, op := range g.ops {
		if current[op.NewName] && !renamed[op.NewName] {
			idents = append(idents, fmt.Sprintf("%s -> %s", op.OldName, op.NewName))
		}
	}
	if len(idents) == 0 {
		return nil
	}
	sort.Strings(idents)
	return &ConflictError{
		Kind:        TargetAlreadyExists,
		Identifiers: idents,
		Detail:      fmt.Sprintf("%s rename targets are already in use", g.label),
	}
}

func currentNames(snap *schema.Snapshot, g *group) map[string]bool {
	names := make(map[string]bool)
	switch g.kind {
	case analyze.KindTable:
		for i := range snap.Tables {
			names[snap.Tables[i].Name] = true
		}
	case analyze.KindColumn:
		if t := snap.Table(g.table); t != nil {
			for i := range t.Columns {
				names[t.Columns[i].Name] = true
			}
		}
	case analyze.KindForeignKey:
		for i := range snap.Tables {
			for j := range snap.Tables[i].ForeignKeys {
				names[snap.Tables[i].ForeignKeys[j].Name] = true
			}
		}
	default:
		if t := snap.Table(g.table); t != nil {
			for i := range t.Indexes {
				names[t.Indexes[i].Name] = true
			}
		}
	}
	return names
}

// order topologically sorts renames so that any rename freeing a wanted name
// runs first. A depends on B when A's new name is B's old name; a cycle (two
// identifiers being swapped) is surfaced rather than silently reordered.
func order(ops []analyze.RenameOp, label string) ([]analyze.RenameOp, error) {
	byOld := make(map[string]int, len(ops))
	for i, op := range ops {
		byOld[op.OldName] = i
	}

	indegree := make([]int, len(ops))
	dependents := make([][]int, len(ops))
	for i, op := range ops {
		if j, ok := byOld[op.NewName]; ok && j != i {
			// op i must wait for op j to vacate the name
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	var ready []int
	for i := range ops {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]analyze.RenameOp, 0, len(ops))
	for len(ready) > 0 {
		sort.Sort(sort.Reverse(sort.IntSlice(ready)))
		i := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		ordered = append(ordered, ops[i])
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(ordered) < len(ops) {
		var idents []string
		for i, op := range ops {
			if indegree[i] > 0 {
				idents = append(idents, fmt.Sprintf("%s -> %s", op.OldName, op.NewName))
			}
		}
		sort.Strings(idents)
		return nil, &ConflictError{
			Kind:        Cycle,
			Identifiers: idents,
			Detail:      fmt.Sprintf("%s renames form a cycle", label),
		}
	}
	return ordered, nil
}
