package admin

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
)

func viewNames(t *testing.T, views []SavedView) []string {
	t.Helper()
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return names
}

func TestAdmin_CreateAndListViews(t *testing.T) {
	t.Parallel()
	conn := seededConn(t)
	ds := januaryDataset(t)

	var buf bytes.Buffer
	require.NoError(t, CreateView(t.Context(), conn, &buf, ds, CreateViewConfig{Name: "dry", DryRun: true}))
	assert.Contains(t, buf.String(), "[DRY RUN] Would create view dry")

	views, err := ListViews(t.Context(), conn)
	require.NoError(t, err)
	assert.Empty(t, views)

	require.NoError(t, CreateView(t.Context(), conn, &buf, ds, CreateViewConfig{Name: "january", Comment: "all of January"}))
	require.NoError(t, CreateView(t.Context(), conn, &buf, ds, CreateViewConfig{Name: "also_january"}))

	views, err = ListViews(t.Context(), conn)
	require.NoError(t, err)
	require.Equal(t, []string{"also_january", "january"}, viewNames(t, views))
	assert.Equal(t, "all of January", views[1].Comment)

	buf.Reset()
	PrintViews(&buf, views)
	assert.Equal(t, "  - also_january\n  - january: all of January\n", buf.String())

	err = CreateView(t.Context(), conn, &buf, ds, CreateViewConfig{Name: "bad-name"})
	require.ErrorIs(t, err, orders.ErrInvalidViewName)
}

func TestAdmin_DropViews(t *testing.T) {
	t.Parallel()
	conn := seededConn(t)
	ds := januaryDataset(t)

	var buf bytes.Buffer
	for _, name := range []string{"keep", "drop_a", "drop_b"} {
		require.NoError(t, CreateView(t.Context(), conn, &buf, ds, CreateViewConfig{Name: name}))
	}

	buf.Reset()
	require.NoError(t, DropViews(t.Context(), conn, &buf, strings.NewReader(""), DropViewsConfig{DryRun: true}))
	assert.Contains(t, buf.String(), "WARNING: This will DROP 3 view(s)")
	assert.Contains(t, buf.String(), "[DRY RUN]")

	buf.Reset()
	require.NoError(t, DropViews(t.Context(), conn, &buf, strings.NewReader("no\n"), DropViewsConfig{Names: []string{"drop_a"}}))
	assert.Contains(t, buf.String(), "Operation cancelled")

	views, err := ListViews(t.Context(), conn)
	require.NoError(t, err)
	require.Len(t, views, 3)

	buf.Reset()
	require.NoError(t, DropViews(t.Context(), conn, &buf, strings.NewReader("yes\n"), DropViewsConfig{Names: []string{"drop_a"}}))
	require.NoError(t, DropViews(t.Context(), conn, &buf, strings.NewReader(""), DropViewsConfig{Names: []string{"drop_b"}, SkipConfirm: true}))

	views, err = ListViews(t.Context(), conn)
	require.NoError(t, err)
	require.Equal(t, []string{"keep"}, viewNames(t, views))

	err = DropViews(t.Context(), conn, &buf, strings.NewReader(""), DropViewsConfig{Names: []string{"x; DROP TABLE dim_part"}, SkipConfirm: true})
	require.ErrorIs(t, err, orders.ErrInvalidViewName)

	require.NoError(t, DropViews(t.Context(), conn, &buf, strings.NewReader(""), DropViewsConfig{SkipConfirm: true}))
	views, err = ListViews(t.Context(), conn)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestAdmin_DropViews_AllIncludesNonIdentifierNames(t *testing.T) {
	t.Parallel()
	conn := seededConn(t)
	ds := januaryDataset(t)

	var buf bytes.Buffer
	require.NoError(t, CreateView(t.Context(), conn, &buf, ds, CreateViewConfig{Name: "january"}))
	require.NoError(t, conn.Exec(t.Context(), "CREATE VIEW `my-view` AS SELECT 1 AS x"))

	views, err := ListViews(t.Context(), conn)
	require.NoError(t, err)
	require.Equal(t, []string{"january", "my-view"}, viewNames(t, views))

	buf.Reset()
	require.NoError(t, DropViews(t.Context(), conn, &buf, strings.NewReader(""), DropViewsConfig{SkipConfirm: true}))
	assert.Contains(t, buf.String(), "Dropped view my-view")

	views, err = ListViews(t.Context(), conn)
	require.NoError(t, err)
	assert.Empty(t, views)

	err = DropViews(t.Context(), conn, &buf, strings.NewReader(""), DropViewsConfig{Names: []string{"my-view"}, SkipConfirm: true})
	require.ErrorIs(t, err, orders.ErrInvalidViewName)
}
