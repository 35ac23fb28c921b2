package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
)

func day(s string) time.Time {
	t, err := time.Parse(query.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOrders_Filter_DateRangeValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DateRange{From: day("2024-01-01"), To: day("2024-01-01")}.Validate())
	require.NoError(t, DateRange{From: day("2024-01-01"), To: day("2024-12-31")}.Validate())

	err := DateRange{From: day("2024-02-01"), To: day("2024-01-01")}.Validate()
	require.ErrorIs(t, err, ErrInvalidDateRange)

	err = DateRange{To: day("2024-01-01")}.Validate()
	require.ErrorIs(t, err, ErrInvalidDateRange)

	require.True(t, DateRange{}.IsZero())
}

func TestOrders_Filter_ParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-05"), d)

	_, err = ParseDate("05/01/2024")
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestOrders_Filter_NormalizeEmptySelections(t *testing.T) {
	t.Parallel()

	preds, err := Normalize(Selection{ShipDates: DateRange{From: day("2024-01-01"), To: day("2024-01-31")}})
	require.NoError(t, err)
	assert.True(t, query.IsTrue(preds.PartType))
	assert.True(t, query.IsTrue(preds.Brand))
	assert.True(t, query.IsTrue(preds.Supplier))

	sql, args := query.Compile(preds.ShipDate)
	assert.Equal(t, "(`f`.`LINEITEM_SHIPDATE` BETWEEN toDate(?) AND toDate(?))", sql)
	assert.Equal(t, []any{"2024-01-01", "2024-01-31"}, args)
}

func TestOrders_Filter_NormalizeValuesVerbatim(t *testing.T) {
	t.Parallel()

	preds, err := Normalize(Selection{
		PartTypes:     []string{"ECONOMY ANODIZED STEEL"},
		Brands:        []string{" Brand#13", "brand#13"},
		SupplierNames: []string{"Acme"},
		ShipDates:     DateRange{From: day("2024-01-01"), To: day("2024-01-31")},
	})
	require.NoError(t, err)

	sql, args := query.Compile(preds.Brand)
	assert.Equal(t, "`P_BRAND` IN (?, ?)", sql)
	assert.Equal(t, []any{" Brand#13", "brand#13"}, args)

	sql, args = query.Compile(preds.PartType)
	assert.Equal(t, "`P_TYPE` IN (?)", sql)
	assert.Equal(t, []any{"ECONOMY ANODIZED STEEL"}, args)

	sql, args = query.Compile(preds.Supplier)
	assert.Equal(t, "`S_NAME` IN (?)", sql)
	assert.Equal(t, []any{"Acme"}, args)
}

func TestOrders_Filter_NormalizeTruncatesToDay(t *testing.T) {
	t.Parallel()

	preds, err := Normalize(Selection{ShipDates: DateRange{
		From: time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC),
	}})
	require.NoError(t, err)
	_, args := query.Compile(preds.ShipDate)
	assert.Equal(t, []any{"2024-01-01", "2024-01-01"}, args)
}

func TestOrders_Filter_NormalizeRequiresDateRange(t *testing.T) {
	t.Parallel()
	_, err := Normalize(Selection{PartTypes: []string{"STEEL"}})
	require.ErrorIs(t, err, ErrInvalidDateRange)
	require.True(t, IsValidation(err))
}
