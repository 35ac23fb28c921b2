package orders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrders_Materialize_ValidateViewName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"orders_view", "_v1", "analytics.orders_view", "V", strings.Repeat("a", 128)} {
		require.NoError(t, ValidateViewName(name), name)
	}

	for _, name := range []string{
		"",
		"1view",
		"my view",
		"v; DROP TABLE dim_part",
		"v`",
		"a.b.c",
		".v",
		"v.",
		"v--",
		"v'",
		strings.Repeat("a", 129),
		"vué",
	} {
		err := ValidateViewName(name)
		require.ErrorIs(t, err, ErrInvalidViewName, name)
		require.True(t, IsValidation(err))
	}
}

func TestOrders_Materialize_ValidateComment(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateComment(""))
	require.NoError(t, ValidateComment("it's a 'quoted' comment; DROP TABLE x"))
	require.NoError(t, ValidateComment(strings.Repeat("c", MaxCommentBytes)))
	require.ErrorIs(t, ValidateComment(strings.Repeat("c", MaxCommentBytes+1)), ErrCommentTooLong)
	require.ErrorIs(t, ValidateComment("a\x00b"), ErrInvalidComment)
}

func TestOrders_Materialize_SaveViewSQL(t *testing.T) {
	t.Parallel()

	a, err := NewAssembler(Tables{})
	require.NoError(t, err)
	ds, err := a.Assemble(Selection{
		SupplierNames: []string{"Supplier#1"},
		ShipDates:     DateRange{From: day("2024-01-01"), To: day("2024-01-31")},
	})
	require.NoError(t, err)
	definition, definitionArgs := ds.SQL()

	stmt, args, err := saveViewSQL(ds, "analytics.orders_v", "it's mine")
	require.NoError(t, err)
	require.Equal(t, "CREATE OR REPLACE VIEW `analytics`.`orders_v` AS "+definition+" COMMENT ?", stmt)
	require.Equal(t, append(definitionArgs, "it's mine"), args)
	require.NotContains(t, stmt, "it's mine")

	stmt, args, err = saveViewSQL(ds, "orders_v", "")
	require.NoError(t, err)
	require.Equal(t, "CREATE OR REPLACE VIEW `orders_v` AS "+definition, stmt)
	require.Equal(t, definitionArgs, args)

	_, _, err = saveViewSQL(ds, "x; DROP TABLE dim_part", "")
	require.ErrorIs(t, err, ErrInvalidViewName)
}
