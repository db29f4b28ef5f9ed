package sheetql

import (
	"fmt"
	"strings"

	"github.com/nao1215/sheetql/domain/model"
)

// likeEscape escapes LIKE wildcards inside filter values.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// matchAll is the predicate of an empty filter set.
const matchAll = "1=1"

// Query is a parameterized SELECT. Args are bound to the ? placeholders in order.
type Query struct {
	SQL       string
	Predicate string
	Args      []any
}

// QueryOption customizes BuildFilterQuery.
type QueryOption func(*queryOptions)

type queryOptions struct {
	limit int
}

// WithLimit caps the number of rows returned. n <= 0 means no limit.
func WithLimit(n int) QueryOption {
	return func(o *queryOptions) {
		o.limit = n
	}
}

// withLimitCap lowers the limit to n. A missing limit becomes n.
func withLimitCap(n int) QueryOption {
	return func(o *queryOptions) {
		if o.limit <= 0 || o.limit > n {
			o.limit = n
		}
	}
}

// BuildFilterQuery turns a filter set into a query over table ordered by the
// identity column. columns is the list of columns the table has; filters
// naming anything else are rejected.
//
// Each filter with a value becomes one condition, in filter set order, and the
// conditions are ANDed. Contains filters match case-insensitively anywhere in
// the text with '%' and '_' taken literally. Case folding covers Unicode on
// the embedded SQLite driver and MySQL but only ASCII on remote libSQL.
// Exact filters compare the stored text. Values only ever travel as arguments.
func BuildFilterQuery(d Dialect, table string, columns []string, filters model.FilterSet, opts ...QueryOption) (*Query, error) {
	ec := newErrorContext("build filter").withTable(table)

	o := &queryOptions{}
	for _, opt := range opts {
		opt(o)
	}

	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}

	active := filters.Active()
	conds := make([]string, 0, len(active))
	args := make([]any, 0, len(active)+1)
	for _, f := range active {
		if _, ok := known[f.Column]; !ok {
			return nil, ec.wrap(ErrQuery, fmt.Errorf("%w: %q", ErrUnknownColumn, f.Column))
		}

		col := d.TextExpr(d.QuoteIdent(f.Column))
		switch f.Mode {
		case model.MatchExact:
			conds = append(conds, col+" = ?")
			args = append(args, f.Value)
		default:
			conds = append(conds, d.LowerExpr(col)+" LIKE "+d.LowerExpr("?")+" ESCAPE '"+likeEscape+"'")
			args = append(args, "%"+likeReplacer.Replace(f.Value)+"%")
		}
	}

	predicate := matchAll
	if len(conds) > 0 {
		predicate = strings.Join(conds, " AND ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s WHERE %s ORDER BY %s", d.QuoteIdent(table), predicate, d.QuoteIdent(IdentityColumn))
	if o.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, o.limit)
	}

	return &Query{
		SQL:       sb.String(),
		Predicate: predicate,
		Args:      args,
	}, nil
}
