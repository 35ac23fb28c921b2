package query

import (
	"slices"
	"strconv"
	"strings"
)

// Source is what a select reads from: a table or a sub-select, optionally aliased.
type Source struct {
	table string
	sub   *Select
	alias string
}

// Table is a source relation. A "db.table" name is quoted per part.
func Table(name string) Source {
	return Source{table: name}
}

// Subquery embeds s as a source.
func Subquery(s Select) Source {
	return Source{sub: &s}
}

// As aliases the source.
func (s Source) As(alias string) Source {
	s.alias = alias
	return s
}

func (s Source) compile(b *builder) {
	if s.sub != nil {
		b.write("(")
		s.sub.compile(b)
		b.write(")")
	} else {
		b.write(QuoteName(s.table))
	}
	if s.alias != "" {
		b.write(" AS ")
		b.write(QuoteIdent(s.alias))
	}
}

// QuoteName quotes a relation name, quoting each part of a "db.name" separately.
func QuoteName(name string) string {
	db, table, ok := strings.Cut(name, ".")
	if !ok {
		return QuoteIdent(name)
	}
	return QuoteIdent(db) + "." + QuoteIdent(table)
}

// Order is one ORDER BY term.
type Order struct {
	Expr Expr
	Desc bool
}

// Asc and Desc build sort keys.
func Asc(e Expr) Order  { return Order{Expr: e} }
func Desc(e Expr) Order { return Order{Expr: e, Desc: true} }

type join struct {
	src Source
	on  Expr
}

// Select is an immutable SELECT statement. Every method returns a modified copy.
type Select struct {
	distinct bool
	columns  []Expr
	from     Source
	joins    []join
	where    Expr
	groupBy  []Expr
	orderBy  []Order
	limit    int
}

// From starts a select over src projecting every column.
func From(src Source) Select {
	return Select{from: src}
}

// Columns replaces the projection.
func (s Select) Columns(cols ...Expr) Select {
	s.columns = slices.Clone(cols)
	return s
}

// Distinct deduplicates the projected rows.
func (s Select) Distinct() Select {
	s.distinct = true
	return s
}

// InnerJoin adds an INNER JOIN against src on the given condition.
func (s Select) InnerJoin(src Source, on Expr) Select {
	s.joins = append(slices.Clone(s.joins), join{src: src, on: on})
	return s
}

// Where ANDs cond into the filter.
func (s Select) Where(cond Expr) Select {
	if s.where == nil {
		s.where = And(cond)
	} else {
		s.where = And(s.where, cond)
	}
	return s
}

// GroupBy replaces the grouping keys.
func (s Select) GroupBy(exprs ...Expr) Select {
	s.groupBy = slices.Clone(exprs)
	return s
}

// OrderBy replaces the ordering.
func (s Select) OrderBy(orders ...Order) Select {
	s.orderBy = slices.Clone(orders)
	return s
}

// Limit caps the number of rows. n <= 0 removes the cap.
func (s Select) Limit(n int) Select {
	s.limit = n
	return s
}

// SQL compiles the select into one statement with positional parameters.
func (s Select) SQL() (string, []any) {
	var b builder
	s.compile(&b)
	return b.sb.String(), b.args
}

func (s Select) compile(b *builder) {
	b.write("SELECT ")
	if s.distinct {
		b.write("DISTINCT ")
	}
	if len(s.columns) == 0 {
		b.write("*")
	}
	for i, c := range s.columns {
		if i > 0 {
			b.write(", ")
		}
		c.compile(b)
	}

	b.write(" FROM ")
	s.from.compile(b)

	for _, j := range s.joins {
		b.write(" INNER JOIN ")
		j.src.compile(b)
		b.write(" ON ")
		j.on.compile(b)
	}

	if s.where != nil && !IsTrue(s.where) {
		b.write(" WHERE ")
		s.where.compile(b)
	}

	if len(s.groupBy) > 0 {
		b.write(" GROUP BY ")
		for i, g := range s.groupBy {
			if i > 0 {
				b.write(", ")
			}
			g.compile(b)
		}
	}

	if len(s.orderBy) > 0 {
		b.write(" ORDER BY ")
		for i, o := range s.orderBy {
			if i > 0 {
				b.write(", ")
			}
			o.Expr.compile(b)
			if o.Desc {
				b.write(" DESC")
			} else {
				b.write(" ASC")
			}
		}
	}

	if s.limit > 0 {
		b.write(" LIMIT ")
		b.write(strconv.Itoa(s.limit))
	}
}
