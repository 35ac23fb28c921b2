package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/orders-dashboard/admin/internal/admin"
	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/orders"
	"github.com/malbeclabs/orders-dashboard/utils/pkg/logger"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	envFileFlag := flag.String("env-file", ".env", "file of environment variables to load if present")

	// ClickHouse configuration
	clickhouseAddrFlag := flag.String("clickhouse-addr", "", "ClickHouse address (host:port) (or set CLICKHOUSE_ADDR_TCP env var)")
	clickhouseDatabaseFlag := flag.String("clickhouse-database", "default", "ClickHouse database name (or set CLICKHOUSE_DATABASE env var)")
	clickhouseUsernameFlag := flag.String("clickhouse-username", "default", "ClickHouse username (or set CLICKHOUSE_USERNAME env var)")
	clickhousePasswordFlag := flag.String("clickhouse-password", "", "ClickHouse password (or set CLICKHOUSE_PASSWORD env var)")
	clickhouseSecureFlag := flag.Bool("clickhouse-secure", false, "Enable TLS for ClickHouse Cloud (or set CLICKHOUSE_SECURE=true env var)")

	// Source relations
	factTableFlag := flag.String("fact-table", orders.DefaultFactTable, "order line fact relation (or set ORDERS_FACT_TABLE env var)")
	partTableFlag := flag.String("part-table", orders.DefaultPartTable, "part dimension relation (or set ORDERS_PART_TABLE env var)")
	supplierTableFlag := flag.String("supplier-table", orders.DefaultSupplierTable, "supplier dimension relation (or set ORDERS_SUPPLIER_TABLE env var)")
	activeFlagFlag := flag.String("active-flag", orders.DefaultActiveFlag, "value of SYSTEM_CURRENT_FLAG marking current dimension rows (or set ORDERS_ACTIVE_FLAG env var)")

	// Commands
	clickhouseMigrateFlag := flag.Bool("clickhouse-migrate", false, "Create the source relations using goose migrations")
	clickhouseMigrateStatusFlag := flag.Bool("clickhouse-migrate-status", false, "Show ClickHouse migration status")
	clickhouseMigrateDownFlag := flag.Bool("clickhouse-migrate-down", false, "Roll back the most recent ClickHouse migration")
	reportFlag := flag.Bool("report", false, "Print every dashboard view for the filters")
	createViewFlag := flag.String("create-view", "", "Save the filtered dataset as a view with this name ([database.]name)")
	listViewsFlag := flag.Bool("list-views", false, "List saved views in the database")
	dropViewsFlag := flag.Bool("drop-views", false, "Drop the views named by --view, or every view when none is given")
	dryRunFlag := flag.Bool("dry-run", false, "Dry run mode - show what would be done without actually executing")
	yesFlag := flag.Bool("yes", false, "Skip confirmation prompt (use with caution)")

	// Filters and view options
	partTypeFlag := flag.StringArray("part-type", nil, "restrict to a part type (repeatable)")
	brandFlag := flag.StringArray("brand", nil, "restrict to a brand (repeatable)")
	supplierFlag := flag.StringArray("supplier", nil, "restrict to a supplier name (repeatable)")
	shipFromFlag := flag.String("ship-from", "", "first ship date, YYYY-MM-DD (default: earliest in the fact relation)")
	shipToFlag := flag.String("ship-to", "", "last ship date, YYYY-MM-DD (default: latest in the fact relation)")
	limitFlag := flag.Int("limit", orders.DefaultRowLimit, "rows in the supplier views (5, 10, 20 or 50)")
	measureFlag := flag.String("measure", "both", "monthly measure: count, revenue or both")
	commentFlag := flag.String("comment", "", "comment attached to the view created by --create-view")
	viewFlag := flag.StringArray("view", nil, "view to drop with --drop-views (repeatable)")

	flag.Parse()

	log := logger.NewWithWriter(os.Stderr, *verboseFlag)

	if err := godotenv.Load(*envFileFlag); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", *envFileFlag, err)
	}

	// Override flags with environment variables if set
	if envClickhouseAddr := os.Getenv("CLICKHOUSE_ADDR_TCP"); envClickhouseAddr != "" {
		*clickhouseAddrFlag = envClickhouseAddr
	}
	if envClickhouseDatabase := os.Getenv("CLICKHOUSE_DATABASE"); envClickhouseDatabase != "" {
		*clickhouseDatabaseFlag = envClickhouseDatabase
	}
	if envClickhouseUsername := os.Getenv("CLICKHOUSE_USERNAME"); envClickhouseUsername != "" {
		*clickhouseUsernameFlag = envClickhouseUsername
	}
	if envClickhousePassword := os.Getenv("CLICKHOUSE_PASSWORD"); envClickhousePassword != "" {
		*clickhousePasswordFlag = envClickhousePassword
	}
	if os.Getenv("CLICKHOUSE_SECURE") == "true" {
		*clickhouseSecureFlag = true
	}
	if envFactTable := os.Getenv("ORDERS_FACT_TABLE"); envFactTable != "" {
		*factTableFlag = envFactTable
	}
	if envPartTable := os.Getenv("ORDERS_PART_TABLE"); envPartTable != "" {
		*partTableFlag = envPartTable
	}
	if envSupplierTable := os.Getenv("ORDERS_SUPPLIER_TABLE"); envSupplierTable != "" {
		*supplierTableFlag = envSupplierTable
	}
	if envActiveFlag := os.Getenv("ORDERS_ACTIVE_FLAG"); envActiveFlag != "" {
		*activeFlagFlag = envActiveFlag
	}

	chCfg := clickhouse.Config{
		Addr:     *clickhouseAddrFlag,
		Database: *clickhouseDatabaseFlag,
		Username: *clickhouseUsernameFlag,
		Password: *clickhousePasswordFlag,
		Secure:   *clickhouseSecureFlag,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	requireAddr := func(command string) error {
		if chCfg.Addr == "" {
			return fmt.Errorf("--clickhouse-addr is required for %s", command)
		}
		return nil
	}

	// Execute commands
	switch {
	case *clickhouseMigrateFlag:
		if err := requireAddr("--clickhouse-migrate"); err != nil {
			return err
		}
		return clickhouse.RunMigrations(ctx, log, chCfg)

	case *clickhouseMigrateStatusFlag:
		if err := requireAddr("--clickhouse-migrate-status"); err != nil {
			return err
		}
		return clickhouse.MigrationStatus(ctx, log, chCfg)

	case *clickhouseMigrateDownFlag:
		if err := requireAddr("--clickhouse-migrate-down"); err != nil {
			return err
		}
		return clickhouse.Down(ctx, log, chCfg)
	}

	command := ""
	switch {
	case *reportFlag:
		command = "--report"
	case *createViewFlag != "":
		command = "--create-view"
	case *listViewsFlag:
		command = "--list-views"
	case *dropViewsFlag:
		command = "--drop-views"
	default:
		flag.Usage()
		return nil
	}
	if err := requireAddr(command); err != nil {
		return err
	}

	client, err := clickhouse.NewClient(ctx, log, chCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	defer client.Close()

	conn, err := client.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	switch command {
	case "--list-views":
		views, err := admin.ListViews(ctx, conn)
		if err != nil {
			return err
		}
		admin.PrintViews(os.Stdout, views)
		return nil
	case "--drop-views":
		return admin.DropViews(ctx, conn, os.Stdout, os.Stdin, admin.DropViewsConfig{
			Names:       *viewFlag,
			DryRun:      *dryRunFlag,
			SkipConfirm: *yesFlag,
		})
	}

	assembler, err := orders.NewAssembler(orders.Tables{
		Fact:       *factTableFlag,
		Part:       *partTableFlag,
		Supplier:   *supplierTableFlag,
		ActiveFlag: *activeFlagFlag,
	})
	if err != nil {
		return err
	}
	provider, err := orders.NewProvider(orders.ProviderConfig{
		Logger:     log,
		ClickHouse: client,
		Tables:     assembler.Tables(),
	})
	if err != nil {
		return err
	}
	shipDates, err := provider.ResolveShipDates(ctx, *shipFromFlag, *shipToFlag)
	if err != nil {
		return err
	}
	ds, err := assembler.Assemble(orders.Selection{
		PartTypes:     *partTypeFlag,
		Brands:        *brandFlag,
		SupplierNames: *supplierFlag,
		ShipDates:     shipDates,
	})
	if err != nil {
		return err
	}

	if command == "--create-view" {
		return admin.CreateView(ctx, conn, os.Stdout, ds, admin.CreateViewConfig{
			Name:    *createViewFlag,
			Comment: *commentFlag,
			DryRun:  *dryRunFlag,
		})
	}

	measure, err := orders.ParseMeasure(*measureFlag)
	if err != nil {
		return err
	}
	return admin.Report(ctx, conn, os.Stdout, ds, *limitFlag, measure)
}
