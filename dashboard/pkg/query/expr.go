// Package query is a small expression and select AST compiled to parameterized ClickHouse SQL.
//
// Nothing here talks to the warehouse. A Select is a value describing a query; it is compiled
// with SQL() and may be embedded as a sub-select in any number of other selects.
package query

import (
	"strings"
	"time"
)

// Expr is a node of a scalar expression.
type Expr interface {
	compile(b *builder)
}

// builder accumulates SQL text and positional arguments in textual order.
type builder struct {
	sb   strings.Builder
	args []any
}

func (b *builder) write(s string) {
	b.sb.WriteString(s)
}

func (b *builder) bind(v any) {
	b.sb.WriteByte('?')
	b.args = append(b.args, v)
}

// QuoteIdent quotes a single identifier with backticks.
func QuoteIdent(name string) string {
	r := strings.NewReplacer(`\`, `\\`, "`", "\\`")
	return "`" + r.Replace(name) + "`"
}

type column struct {
	table string
	name  string
}

// Col references a column by name.
func Col(name string) Expr {
	return column{name: name}
}

// QCol references a column qualified by a table alias.
func QCol(table, name string) Expr {
	return column{table: table, name: name}
}

func (c column) compile(b *builder) {
	if c.table != "" {
		b.write(QuoteIdent(c.table))
		b.write(".")
	}
	b.write(QuoteIdent(c.name))
}

type literal struct {
	value any
}

// Lit is a value bound as a query parameter.
func Lit(v any) Expr {
	return literal{value: v}
}

func (l literal) compile(b *builder) {
	b.bind(l.value)
}

// DateLayout is the wire format of date parameters.
const DateLayout = "2006-01-02"

type dateLit struct {
	t time.Time
}

// Date is a calendar date parameter, compared against Date columns.
func Date(t time.Time) Expr {
	return dateLit{t: t}
}

func (d dateLit) compile(b *builder) {
	b.write("toDate(")
	b.bind(d.t.Format(DateLayout))
	b.write(")")
}

type trueExpr struct{}

// True is the tautology. It is dropped from conjunctions.
func True() Expr {
	return trueExpr{}
}

func (trueExpr) compile(b *builder) {
	b.write("1")
}

// IsTrue reports whether e is the tautology.
func IsTrue(e Expr) bool {
	_, ok := e.(trueExpr)
	return ok
}

type binary struct {
	op          string
	left, right Expr
}

func (e binary) compile(b *builder) {
	b.write("(")
	e.left.compile(b)
	b.write(" " + e.op + " ")
	e.right.compile(b)
	b.write(")")
}

// Comparison and arithmetic operators. Each renders parenthesized.
func Eq(l, r Expr) Expr  { return binary{op: "=", left: l, right: r} }
func Ne(l, r Expr) Expr  { return binary{op: "!=", left: l, right: r} }
func Gt(l, r Expr) Expr  { return binary{op: ">", left: l, right: r} }
func Sub(l, r Expr) Expr { return binary{op: "-", left: l, right: r} }
func Mul(l, r Expr) Expr { return binary{op: "*", left: l, right: r} }
func Div(l, r Expr) Expr { return binary{op: "/", left: l, right: r} }

type conj struct {
	op    string
	terms []Expr
}

// And joins terms with AND. Tautologies are dropped; an empty conjunction is True.
func And(terms ...Expr) Expr {
	kept := make([]Expr, 0, len(terms))
	for _, t := range terms {
		if t == nil || IsTrue(t) {
			continue
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return True()
	case 1:
		return kept[0]
	}
	return conj{op: "AND", terms: kept}
}

// Or joins terms with OR. Any tautology makes the whole disjunction True.
func Or(terms ...Expr) Expr {
	kept := make([]Expr, 0, len(terms))
	for _, t := range terms {
		if t == nil {
			continue
		}
		if IsTrue(t) {
			return True()
		}
		kept = append(kept, t)
	}
	if len(kept) == 1 {
		return kept[0]
	}
	if len(kept) == 0 {
		// Empty disjunction matches nothing.
		return Lit(0)
	}
	return conj{op: "OR", terms: kept}
}

func (c conj) compile(b *builder) {
	b.write("(")
	for i, t := range c.terms {
		if i > 0 {
			b.write(" " + c.op + " ")
		}
		t.compile(b)
	}
	b.write(")")
}

type in struct {
	expr   Expr
	values []any
}

// In is membership of expr in values, one placeholder per value. An empty list matches nothing.
func In[T any](expr Expr, values []T) Expr {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return in{expr: expr, values: vals}
}

func (e in) compile(b *builder) {
	if len(e.values) == 0 {
		b.write("0")
		return
	}
	e.expr.compile(b)
	b.write(" IN (")
	for i, v := range e.values {
		if i > 0 {
			b.write(", ")
		}
		b.bind(v)
	}
	b.write(")")
}

type between struct {
	expr, lo, hi Expr
}

// Between is the inclusive range check lo <= expr <= hi.
func Between(expr, lo, hi Expr) Expr {
	return between{expr: expr, lo: lo, hi: hi}
}

func (e between) compile(b *builder) {
	b.write("(")
	e.expr.compile(b)
	b.write(" BETWEEN ")
	e.lo.compile(b)
	b.write(" AND ")
	e.hi.compile(b)
	b.write(")")
}

// When is one branch of a Case.
type When struct {
	Cond Expr
	Then Expr
}

type caseExpr struct {
	whens []When
	els   Expr
}

// Case evaluates the first branch whose condition holds, else els.
func Case(els Expr, whens ...When) Expr {
	return caseExpr{whens: whens, els: els}
}

func (e caseExpr) compile(b *builder) {
	b.write("CASE")
	for _, w := range e.whens {
		b.write(" WHEN ")
		w.Cond.compile(b)
		b.write(" THEN ")
		w.Then.compile(b)
	}
	b.write(" ELSE ")
	e.els.compile(b)
	b.write(" END")
}

type call struct {
	name string
	args []Expr
}

// Func calls a warehouse function. name is never user input.
func Func(name string, args ...Expr) Expr {
	return call{name: name, args: args}
}

func (c call) compile(b *builder) {
	b.write(c.name)
	b.write("(")
	for i, a := range c.args {
		if i > 0 {
			b.write(", ")
		}
		a.compile(b)
	}
	b.write(")")
}

func Sum(e Expr) Expr      { return Func("sum", e) }
func Count(e Expr) Expr    { return Func("count", e) }
func Min(e Expr) Expr      { return Func("min", e) }
func Max(e Expr) Expr      { return Func("max", e) }
func ToString(e Expr) Expr { return Func("toString", e) }
func ToYear(e Expr) Expr   { return Func("toYear", e) }
func ToMonth(e Expr) Expr  { return Func("toMonth", e) }
func Concat(args ...Expr) Expr {
	return Func("concat", args...)
}

// LeftPad pads the string e on the left with pad up to width characters.
func LeftPad(e Expr, width int, pad string) Expr {
	return Func("leftPad", e, Lit(width), Lit(pad))
}

// Trunc converts e to a 64-bit integer, dropping the fractional part toward zero.
func Trunc(e Expr) Expr {
	return Func("toInt64", e)
}

type aliased struct {
	expr  Expr
	alias string
}

// As names a projected expression. Only meaningful in a select list.
func As(e Expr, alias string) Expr {
	return aliased{expr: e, alias: alias}
}

func (a aliased) compile(b *builder) {
	a.expr.compile(b)
	b.write(" AS ")
	b.write(QuoteIdent(a.alias))
}

// Compile renders a standalone expression. Used by tests and for debugging.
func Compile(e Expr) (string, []any) {
	var b builder
	e.compile(&b)
	return b.sb.String(), b.args
}
