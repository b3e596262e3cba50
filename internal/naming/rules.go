package naming

import (
	"strings"
	"unicode"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

// Prefixes enforced on index and constraint names.
const (
	PrefixIndex      = "idx_"
	PrefixUnique     = "uk_"
	PrefixForeignKey = "fk_"
)

// Rules holds the naming convention parameters. All rule functions are pure:
// the same input always yields the same output.
type Rules struct {
	// MaxIdentifierLen caps generated identifier names. MySQL limits
	// identifiers to 64 characters.
	MaxIdentifierLen int
}

// DefaultRules returns the conventions enforced by default:
// CamelCase tables, snake_case columns, prefixed snake_case index names.
func DefaultRules() Rules {
	return Rules{MaxIdentifierLen: 64}
}

// splitWords breaks an identifier into logical words. Underscores, hyphens,
// spaces, and any other non-alphanumeric runes are explicit boundaries.
// Within a run of alphanumerics, lowercase-to-uppercase and letter-to-digit
// transitions start a new word.
func splitWords(name string) []string {
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			if unicode.IsUpper(r) && unicode.IsLower(prev) {
				flush()
			} else if unicode.IsDigit(r) && unicode.IsLetter(prev) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func capitalize(word string) string {
	if word == "" {
		return ""
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}

// CanonicalTable converts a name to the CamelCase form enforced for tables.
func (r Rules) CanonicalTable(name string) string {
	var b strings.Builder
	for _, w := range splitWords(name) {
		b.WriteString(capitalize(w))
	}
	out := b.String()
	if out == "" || !unicode.IsLetter(rune(out[0])) {
		out = "Table" + out
	}
	return r.clamp(out)
}

// CanonicalColumn converts a name to the snake_case form enforced for columns.
func (r Rules) CanonicalColumn(name string) string {
	words := splitWords(name)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	out := strings.Join(words, "_")
	if out == "" || !unicode.IsLetter(rune(out[0])) {
		out = "col_" + out
	}
	return r.clamp(out)
}

// Canonicalize maps an identifier to its canonical form for the given kind.
// Index and constraint kinds keep their snake_case body and gain the
// kind-specific prefix; use IndexName when the owning table and column list
// are known, since that produces the fully conventional name.
func (r Rules) Canonicalize(name string, kind analyze.IdentKind) string {
	switch kind {
	case analyze.KindTable:
		return r.CanonicalTable(name)
	case analyze.KindColumn:
		return r.CanonicalColumn(name)
	case analyze.KindIndex:
		return r.prefixed(PrefixIndex, name)
	case analyze.KindUniqueConstraint:
		return r.prefixed(PrefixUnique, name)
	case analyze.KindForeignKey:
		return r.prefixed(PrefixForeignKey, name)
	default:
		return name
	}
}

// Violates reports whether a name deviates from its canonical form.
func (r Rules) Violates(name string, kind analyze.IdentKind) bool {
	return r.Canonicalize(name, kind) != name
}

// prefixed snake_cases the name body and ensures the kind prefix, stripping
// any other known prefix first so re-canonicalizing is a no-op.
func (r Rules) prefixed(prefix, name string) string {
	body := strings.TrimPrefix(r.CanonicalColumn(name), "col_")
	for _, p := range []string{PrefixIndex, PrefixUnique, PrefixForeignKey} {
		if strings.HasPrefix(body, p) {
			body = body[len(p):]
			break
		}
	}
	return r.clamp(prefix + body)
}

// IndexName builds the conventional name for an index or constraint:
// prefix + snake_case table + column list joined by underscores. Names over
// the identifier limit are truncated deterministically: the prefix is kept,
// the remaining budget is split between the table and column parts, and as a
// last resort the name is cut to 60 characters plus an "_etc" tail.
func (r Rules) IndexName(prefix, table string, columns []string) string {
	tablePart := strings.TrimPrefix(r.CanonicalColumn(table), "col_")
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		if c == "" {
			continue
		}
		parts = append(parts, strings.TrimPrefix(r.CanonicalColumn(c), "col_"))
	}
	columnPart := strings.Join(parts, "_")

	name := prefix + tablePart + "_" + columnPart
	if len(name) <= r.MaxIdentifierLen {
		return name
	}

	budget := r.MaxIdentifierLen - len(prefix)
	tablePart = clampString(tablePart, budget/2)
	columnPart = clampString(columnPart, budget/2)
	name = prefix + tablePart + "_" + columnPart
	if len(name) > r.MaxIdentifierLen {
		name = name[:r.MaxIdentifierLen-4] + "_etc"
	}
	return name
}

// ExpectedIndexName returns the conventional name for an index definition.
// Unique indexes take uk_; a single-column non-unique index on an *_id column
// is treated as a foreign-key lookup index and takes fk_; everything else
// takes idx_.
func (r Rules) ExpectedIndexName(table string, idx *schema.Index) string {
	return r.IndexName(IndexPrefix(idx), table, idx.Columns)
}

// ExpectedForeignKeyName returns the conventional name for a foreign key
// constraint.
func (r Rules) ExpectedForeignKeyName(table string, fk *schema.ForeignKey) string {
	return r.IndexName(PrefixForeignKey, table, fk.Columns)
}

// IndexPrefix picks the enforced prefix for an index definition. The
// foreign-key check runs on the canonical column form so CamelCase id columns
// are recognized before they are renamed.
func IndexPrefix(idx *schema.Index) string {
	if idx.Unique {
		return PrefixUnique
	}
	if len(idx.Columns) == 1 && strings.HasSuffix(Rules{}.CanonicalColumn(idx.Columns[0]), "_id") {
		return PrefixForeignKey
	}
	return PrefixIndex
}

// IndexKind maps an index definition to its identifier kind.
func IndexKind(idx *schema.Index) analyze.IdentKind {
	if idx.Unique {
		return analyze.KindUniqueConstraint
	}
	return analyze.KindIndex
}

func (r Rules) clamp(name string) string {
	return clampString(name, r.MaxIdentifierLen)
}

func clampString(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
