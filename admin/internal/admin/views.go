package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse/dataset"
)

// SavedView is a view in the connection's current database.
type SavedView struct {
	Name    string `ch:"name"`
	Comment string `ch:"comment"`
}

// ListViews returns the plain views of the current database, by name.
func ListViews(ctx context.Context, conn clickhouse.Connection) ([]SavedView, error) {
	views, err := dataset.QueryTyped[SavedView](ctx, conn, `
		SELECT name, comment
		FROM system.tables
		WHERE database = currentDatabase()
		  AND engine = 'View'
		ORDER BY name
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query views: %w", err)
	}
	return views, nil
}

// PrintViews writes one line per view.
func PrintViews(w io.Writer, views []SavedView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "No views found")
		return
	}
	for _, v := range views {
		if v.Comment == "" {
			fmt.Fprintf(w, "  - %s\n", v.Name)
			continue
		}
		fmt.Fprintf(w, "  - %s: %s\n", v.Name, v.Comment)
	}
}

type DropViewsConfig struct {
	// Names to drop. Empty drops every view in the current database.
	Names       []string
	DryRun      bool
	SkipConfirm bool
}

// DropViews drops saved views after asking for confirmation on in.
func DropViews(ctx context.Context, conn clickhouse.Connection, w io.Writer, in io.Reader, cfg DropViewsConfig) error {
	names := cfg.Names
	for _, name := range names {
		if err := orders.ValidateViewName(name); err != nil {
			return err
		}
	}
	// Listed names come from the catalog and are only ever quoted.
	if len(names) == 0 {
		views, err := ListViews(ctx, conn)
		if err != nil {
			return err
		}
		for _, v := range views {
			names = append(names, v.Name)
		}
	}

	if len(names) == 0 {
		fmt.Fprintln(w, "No views found")
		return nil
	}

	fmt.Fprintf(w, "WARNING: This will DROP %d view(s):\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(w, "  - %s\n", name)
	}

	if cfg.DryRun {
		fmt.Fprintln(w, "\n[DRY RUN] Would drop the above views")
		return nil
	}

	if !cfg.SkipConfirm {
		fmt.Fprintf(w, "\nThis operation cannot be undone!\n")
		fmt.Fprintf(w, "Type 'yes' to confirm: ")

		response, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Fprintf(w, "\nConfirmation failed. Operation cancelled.\n")
			return nil
		}
		fmt.Fprintln(w)
	}

	for _, name := range names {
		if err := conn.Exec(ctx, "DROP VIEW IF EXISTS "+query.QuoteName(name)); err != nil {
			return fmt.Errorf("failed to drop view %s: %w", name, err)
		}
		fmt.Fprintf(w, "  Dropped view %s\n", name)
	}

	fmt.Fprintf(w, "\nSuccessfully dropped %d view(s)\n", len(names))
	return nil
}
