package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

type CreateViewConfig struct {
	Name    string
	Comment string
	DryRun  bool
}

// CreateView saves ds as a view. In dry run mode it only prints the definition.
func CreateView(ctx context.Context, conn clickhouse.Connection, w io.Writer, ds *orders.Dataset, cfg CreateViewConfig) error {
	if err := orders.ValidateViewName(cfg.Name); err != nil {
		return err
	}
	if err := orders.ValidateComment(cfg.Comment); err != nil {
		return err
	}

	definition, args := ds.SQL()
	if cfg.DryRun {
		fmt.Fprintf(w, "[DRY RUN] Would create view %s as:\n%s\n", cfg.Name, definition)
		fmt.Fprintf(w, "Parameters: %v\n", args)
		return nil
	}

	if err := orders.SaveView(ctx, conn, ds, cfg.Name, cfg.Comment); err != nil {
		return fmt.Errorf("failed to create view %s: %w", cfg.Name, err)
	}
	fmt.Fprintf(w, "Created view %s\n", cfg.Name)
	return nil
}
