package dataset

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestWarehouse_Dataset_UnwrapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		base     string
		nullable bool
	}{
		{"String", "String", false},
		{"Nullable(Date)", "Date", true},
		{"LowCardinality(String)", "String", false},
		{"LowCardinality(Nullable(String))", "String", true},
		{"Decimal(15, 2)", "Decimal(15, 2)", false},
		{"Nullable(Decimal(38, 4))", "Decimal(38, 4)", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, nullable := unwrapType(tt.in)
			require.Equal(t, tt.base, base)
			require.Equal(t, tt.nullable, nullable)
		})
	}
}

func TestWarehouse_Dataset_DereferencePointer(t *testing.T) {
	t.Parallel()

	s := "Brand#13"
	require.Equal(t, "Brand#13", DereferencePointer(&s))

	var nullString *string
	require.Nil(t, DereferencePointer(&nullString))

	nonNull := &s
	require.Equal(t, "Brand#13", DereferencePointer(&nonNull))

	d := decimal.RequireFromString("90.00")
	require.True(t, d.Equal(DereferencePointer(&d).(decimal.Decimal)))

	require.Nil(t, DereferencePointer(nil))
	require.Equal(t, 42, DereferencePointer(42))
}

func TestWarehouse_Dataset_ScanIntoStruct(t *testing.T) {
	t.Parallel()

	type row struct {
		SupplierName string          `ch:"Supplier Name"`
		Revenue      decimal.Decimal `ch:"Total Revenue"`
		OrderCount   int64           `ch:"Count of Orders"`
		ShipDate     time.Time
		Missing      *string
	}

	name := "Supplier#000000001"
	revenue := decimal.RequireFromString("140.00")
	count := uint64(2)
	shipDate := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	var missing *string

	got, err := scanIntoStruct[row](
		[]any{&name, &revenue, &count, &shipDate, &missing},
		[]string{"Supplier Name", "Total Revenue", "Count of Orders", "ship_date", "missing"},
	)
	require.NoError(t, err)
	require.Equal(t, "Supplier#000000001", got.SupplierName)
	require.True(t, revenue.Equal(got.Revenue))
	require.Equal(t, int64(2), got.OrderCount)
	require.Equal(t, shipDate, got.ShipDate)
	require.Nil(t, got.Missing)
}

func TestWarehouse_Dataset_ScanIntoStruct_TypeMismatch(t *testing.T) {
	t.Parallel()

	type row struct {
		When time.Time `ch:"when"`
	}
	s := "not a time"
	_, err := scanIntoStruct[row]([]any{&s}, []string{"when"})
	require.Error(t, err)
	require.Contains(t, err.Error(), `column "when"`)
}

func TestWarehouse_Dataset_CamelToSnake(t *testing.T) {
	t.Parallel()
	require.Equal(t, "ship_date", camelToSnake("ShipDate"))
	require.Equal(t, "order_count", camelToSnake("OrderCount"))
	require.Equal(t, "name", camelToSnake("Name"))
}
