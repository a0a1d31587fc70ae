// Package internal builds the listing queries shared by the SQL backends.
package internal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sagarc03/storefront"
)

// Dialect captures what differs between the backends' SQL.
type Dialect struct {
	// Placeholder returns the bind parameter for the n-th argument (1-based).
	Placeholder func(n int) string
	// Like is the case-insensitive pattern operator.
	Like string
}

// Postgres uses $n placeholders and ILIKE.
var Postgres = Dialect{
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Like:        "ILIKE",
}

// SQLite uses ? placeholders; its LIKE is already case-insensitive for ASCII.
var SQLite = Dialect{
	Placeholder: func(int) string { return "?" },
	Like:        "LIKE",
}

// Query accumulates WHERE conditions and their arguments.
type Query struct {
	dialect Dialect
	conds   []string
	args    []any
}

func NewQuery(d Dialect) *Query {
	return &Query{dialect: d}
}

// Where adds a condition. Every %s in format is replaced by the placeholder of
// the matching argument.
func (q *Query) Where(format string, args ...any) {
	phs := make([]any, len(args))
	for i, a := range args {
		q.args = append(q.args, a)
		phs[i] = q.dialect.Placeholder(len(q.args))
	}
	q.conds = append(q.conds, fmt.Sprintf(format, phs...))
}

// WhereClause returns "WHERE ..." or "" when no condition was added.
func (q *Query) WhereClause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(q.conds, " AND ")
}

// Args returns the arguments of every condition added so far.
func (q *Query) Args() []any {
	return q.args
}

// Page returns "LIMIT x OFFSET y" with placeholders and the arguments
// extended by limit and offset.
func (q *Query) Page(p storefront.Pagination) (string, []any) {
	args := append(append([]any{}, q.args...), p.Limit, p.Offset())
	limit := q.dialect.Placeholder(len(args) - 1)
	offset := q.dialect.Placeholder(len(args))
	return fmt.Sprintf("LIMIT %s OFFSET %s", limit, offset), args
}

// likeContains returns a LIKE pattern matching s anywhere, escaped with '\'.
func likeContains(s string) string {
	return "%" + storefront.EscapeLikePattern(s) + "%"
}

// AdminFilter builds the conditions of an admin listing.
func AdminFilter(d Dialect, aq storefront.AdminQuery) *Query {
	q := NewQuery(d)
	if s := strings.TrimSpace(aq.Search); s != "" {
		pattern := likeContains(s)
		q.Where(fmt.Sprintf(`(name %[1]s %%s ESCAPE '\' OR email %[1]s %%s ESCAPE '\')`, d.Like), pattern, pattern)
	}
	return q
}

// ProductFilter builds the conditions of a product listing.
func ProductFilter(d Dialect, pq storefront.ProductQuery) *Query {
	q := NewQuery(d)
	if pq.Category != "" {
		q.Where("LOWER(category) = LOWER(%s)", pq.Category)
	}
	if pq.Status != "" {
		q.Where("status = %s", string(pq.Status))
	}
	if pq.Featured != nil {
		q.Where("featured = %s", *pq.Featured)
	}
	if pq.MinPrice != nil {
		q.Where("price >= %s", *pq.MinPrice)
	}
	if pq.MaxPrice != nil {
		q.Where("price <= %s", *pq.MaxPrice)
	}
	if s := strings.TrimSpace(pq.Search); s != "" {
		pattern := likeContains(s)
		q.Where(fmt.Sprintf(`(name %[1]s %%s ESCAPE '\' OR description %[1]s %%s ESCAPE '\')`, d.Like), pattern, pattern)
	}
	return q
}

// ProductOrder returns the ORDER BY clause for a normalized query. Column
// names come from storefront.ProductSortFields only.
func ProductOrder(pq storefront.ProductQuery) (string, error) {
	column := ""
	for _, f := range storefront.ProductSortFields {
		if f == pq.SortBy {
			column = f
			break
		}
	}
	if column == "" {
		return "", fmt.Errorf("order: %w: unknown sort field %q", storefront.ErrInvalidInput, pq.SortBy)
	}

	direction := "DESC"
	if strings.EqualFold(pq.SortOrder, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", column, direction), nil
}
