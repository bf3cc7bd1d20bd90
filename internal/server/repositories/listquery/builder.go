// Package listquery builds the owner-scoped SELECT statements used by the
// entity repositories. Every statement starts with the owner predicate.
package listquery

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

type Builder struct {
	sb   strings.Builder
	args []any
}

// Select starts "SELECT columns FROM table WHERE user_id = $1".
func Select(columns, table, userID string) *Builder {
	b := &Builder{}
	b.args = append(b.args, userID)
	fmt.Fprintf(&b.sb, "SELECT %s FROM %s WHERE user_id = $1", columns, table)
	return b
}

// Equal adds "AND column = $n" unless value is empty.
func (b *Builder) Equal(column string, value string) *Builder {
	if value == "" {
		return b
	}
	b.args = append(b.args, value)
	fmt.Fprintf(&b.sb, " AND %s = $%d", column, len(b.args))
	return b
}

// Search adds a case-insensitive substring match over columns, all sharing
// one placeholder. An empty term adds nothing.
func (b *Builder) Search(term string, columns ...string) *Builder {
	if term == "" || len(columns) == 0 {
		return b
	}
	b.args = append(b.args, "%"+EscapeLike(term)+"%")
	n := len(b.args)

	b.sb.WriteString(" AND (")
	for i, c := range columns {
		if i > 0 {
			b.sb.WriteString(" OR ")
		}
		fmt.Fprintf(&b.sb, "%s ILIKE $%d", c, n)
	}
	b.sb.WriteString(")")
	return b
}

// OrderBy sorts by expr and breaks ties by id in the same direction.
func (b *Builder) OrderBy(expr string, order models.SortOrder, nullsLast bool) *Builder {
	dir := "ASC"
	if order == models.SortDesc {
		dir = "DESC"
	}
	fmt.Fprintf(&b.sb, " ORDER BY %s %s", expr, dir)
	if nullsLast {
		b.sb.WriteString(" NULLS LAST")
	}
	fmt.Fprintf(&b.sb, ", id %s", dir)
	return b
}

func (b *Builder) String() string { return b.sb.String() }

func (b *Builder) Args() []any { return b.args }

// RankCase orders an enum column by the position of its values.
func RankCase(column string, values ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CASE %s", column)
	for i, v := range values {
		fmt.Fprintf(&sb, " WHEN '%s' THEN %d", strings.ReplaceAll(v, "'", "''"), i+1)
	}
	sb.WriteString(" ELSE 0 END")
	return sb.String()
}

// EscapeLike escapes the LIKE wildcards in s using the default backslash escape.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
