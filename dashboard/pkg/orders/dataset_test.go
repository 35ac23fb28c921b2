package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderKeys(t *testing.T, f *testFixture, ds *Dataset) map[uint64]map[string]any {
	t.Helper()
	result, err := ds.Rows(t.Context(), f.conn, MaxPreviewRows)
	require.NoError(t, err)
	keys := make(map[uint64]map[string]any, result.Count)
	for _, row := range result.Rows {
		keys[row[ColumnOrderKey].(uint64)] = row
	}
	return keys
}

func TestOrders_Dataset_ColumnsAndDerivations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.parts(t, part{key: 1, typ: "STEEL", brand: "Brand#13"})
	f.suppliers(t, supplier{key: 1, name: "Supplier#1"})
	f.lines(t,
		line{orderKey: 1, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02", orderDate: "2023-09-30", status: "O", priorityNum: "2", priority: "HIGH"},
		line{orderKey: 2, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02", status: "P"},
		line{orderKey: 3, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02", status: "F"},
		line{orderKey: 4, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02", status: "C"},
		line{orderKey: 5, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02", status: "Z"},
	)

	result, err := assemble(t, Selection{ShipDates: january()}).Rows(t.Context(), f.conn, DefaultPreviewRows)
	require.NoError(t, err)
	require.Equal(t, OutputSchema(), result.Columns)
	require.Equal(t, 5, result.Count)

	rows := orderKeys(t, f, assemble(t, Selection{ShipDates: january()}))
	assert.Equal(t, StatusNotShipped, rows[1][ColumnOrderStatus])
	assert.Equal(t, StatusPartiallyShipped, rows[2][ColumnOrderStatus])
	assert.Equal(t, StatusFullyShipped, rows[3][ColumnOrderStatus])
	assert.Equal(t, StatusCancelled, rows[4][ColumnOrderStatus])
	assert.Equal(t, StatusUnknown, rows[5][ColumnOrderStatus])

	assert.Equal(t, "2023-09", rows[1][ColumnOrderYearMonth])
	assert.Equal(t, "2024-01", rows[2][ColumnOrderYearMonth])
	assert.Equal(t, "2-HIGH", rows[1][ColumnOrderPriority])
	assert.Equal(t, "3-MEDIUM", rows[2][ColumnOrderPriority])
	assert.Equal(t, "Supplier#1", rows[1][ColumnSupplierName])
	assert.Equal(t, "STEEL", rows[1]["Part Type"])
	assert.Equal(t, int32(5), rows[1]["Days to Ship"])
}

func TestOrders_Dataset_InactiveAndOrphanRowsDropped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.parts(t,
		part{key: 1, typ: "STEEL", brand: "Brand#13"},
		part{key: 2, typ: "STEEL", brand: "Brand#13", flag: "N"},
	)
	f.suppliers(t,
		supplier{key: 1, name: "Supplier#1"},
		supplier{key: 2, name: "Supplier#2", flag: "N"},
	)
	f.lines(t,
		line{orderKey: 1, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02"},
		line{orderKey: 2, partKey: 2, supplierKey: 1, price: 1, shipDate: "2024-01-02"},
		line{orderKey: 3, partKey: 1, supplierKey: 2, price: 1, shipDate: "2024-01-02"},
		line{orderKey: 4, partKey: 99, supplierKey: 1, price: 1, shipDate: "2024-01-02"},
	)

	rows := orderKeys(t, f, assemble(t, Selection{ShipDates: january()}))
	require.Len(t, rows, 1)
	require.Contains(t, rows, uint64(1))
}

func TestOrders_Dataset_ShipDateBoundsInclusive(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.parts(t, part{key: 1, typ: "STEEL", brand: "Brand#13"})
	f.suppliers(t, supplier{key: 1, name: "Supplier#1"})
	f.lines(t,
		line{orderKey: 1, partKey: 1, supplierKey: 1, price: 1, shipDate: "2023-12-31"},
		line{orderKey: 2, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-01"},
		line{orderKey: 3, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-31"},
		line{orderKey: 4, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-02-01"},
	)

	rows := orderKeys(t, f, assemble(t, Selection{ShipDates: january()}))
	require.Len(t, rows, 2)
	require.Contains(t, rows, uint64(2))
	require.Contains(t, rows, uint64(3))
}

func TestOrders_Dataset_EmptySelectionIsSuperset(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.parts(t,
		part{key: 1, typ: "STEEL", brand: "Brand#13"},
		part{key: 2, typ: "COPPER", brand: "Brand#13"},
		part{key: 3, typ: "TIN", brand: "Brand#22"},
	)
	f.suppliers(t,
		supplier{key: 1, name: "Supplier#1"},
		supplier{key: 2, name: "Supplier#2"},
	)
	f.lines(t,
		line{orderKey: 1, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02"},
		line{orderKey: 2, partKey: 2, supplierKey: 2, price: 1, shipDate: "2024-01-03"},
		line{orderKey: 3, partKey: 3, supplierKey: 1, price: 1, shipDate: "2024-01-04"},
	)

	all := orderKeys(t, f, assemble(t, Selection{ShipDates: january()}))
	require.Len(t, all, 3)

	for _, sel := range []Selection{
		{PartTypes: []string{"STEEL"}, ShipDates: january()},
		{PartTypes: []string{"STEEL", "TIN"}, ShipDates: january()},
		{Brands: []string{"Brand#13"}, ShipDates: january()},
		{PartTypes: []string{"TIN"}, Brands: []string{"Brand#13"}, ShipDates: january()},
		{SupplierNames: []string{"Supplier#2"}, ShipDates: january()},
	} {
		subset := orderKeys(t, f, assemble(t, sel))
		for key := range subset {
			assert.Contains(t, all, key)
		}
	}

	steel := orderKeys(t, f, assemble(t, Selection{PartTypes: []string{"STEEL", "TIN"}, ShipDates: january()}))
	assert.Len(t, steel, 2)
	both := orderKeys(t, f, assemble(t, Selection{PartTypes: []string{"TIN"}, Brands: []string{"Brand#13"}, ShipDates: january()}))
	assert.Empty(t, both)
}

func TestOrders_Dataset_RowsLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.parts(t, part{key: 1, typ: "STEEL", brand: "Brand#13"})
	f.suppliers(t, supplier{key: 1, name: "Supplier#1"})
	f.lines(t,
		line{orderKey: 1, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02"},
		line{orderKey: 2, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02"},
		line{orderKey: 3, partKey: 1, supplierKey: 1, price: 1, shipDate: "2024-01-02"},
	)

	ds := assemble(t, Selection{ShipDates: january()})
	result, err := ds.Rows(t.Context(), f.conn, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	_, err = ds.Rows(t.Context(), f.conn, 0)
	require.ErrorIs(t, err, ErrInvalidLimit)
	_, err = ds.Rows(t.Context(), f.conn, MaxPreviewRows+1)
	require.ErrorIs(t, err, ErrInvalidLimit)
}
