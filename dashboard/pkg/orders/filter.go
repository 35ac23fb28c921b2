package orders

import (
	"fmt"
	"time"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
)

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Validate requires both bounds and From <= To.
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("%w: both bounds are required", ErrInvalidDateRange)
	}
	if truncateDay(r.From).After(truncateDay(r.To)) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange,
			r.From.Format(query.DateLayout), r.To.Format(query.DateLayout))
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(query.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDateRange, s)
	}
	return t, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Selection is the user's filter input. An empty list places no restriction on its field.
type Selection struct {
	PartTypes     []string  `json:"partTypes"`
	Brands        []string  `json:"brands"`
	SupplierNames []string  `json:"supplierNames"`
	ShipDates     DateRange `json:"shipDates"`
}

// Predicates are the normalized filter fragments. Dimension predicates use unqualified
// column names and apply inside the dimension sub-selects; ShipDate applies to the fact.
type Predicates struct {
	PartType query.Expr
	Brand    query.Expr
	Supplier query.Expr
	ShipDate query.Expr
}

// Normalize turns a selection into predicates. Values are matched verbatim: no trimming
// and no case folding, so a misspelled value yields no rows rather than an error.
func Normalize(sel Selection) (Predicates, error) {
	if err := sel.ShipDates.Validate(); err != nil {
		return Predicates{}, err
	}
	return Predicates{
		PartType: membership(colPartType, sel.PartTypes),
		Brand:    membership(colPartBrand, sel.Brands),
		Supplier: membership(colSupplierName, sel.SupplierNames),
		ShipDate: query.Between(
			query.QCol(factAlias, colShipDate),
			query.Date(truncateDay(sel.ShipDates.From)),
			query.Date(truncateDay(sel.ShipDates.To)),
		),
	}, nil
}

func membership(column string, values []string) query.Expr {
	if len(values) == 0 {
		return query.True()
	}
	return query.In(query.Col(column), values)
}
