package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
)

const (
	lookupPartTypes     = "part_types"
	lookupBrands        = "brands"
	lookupSupplierNames = "supplier_names"
	lookupShipDateRange = "ship_date_range"
)

type ProviderConfig struct {
	Logger     *slog.Logger
	Clock      clockwork.Clock
	ClickHouse clickhouse.Client
	Tables     Tables

	// MaxAge expires cached lookups. Zero keeps them until Invalidate or SetSnapshot.
	MaxAge time.Duration
}

func (cfg *ProviderConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ClickHouse == nil {
		return errors.New("clickhouse client is required")
	}
	if cfg.MaxAge < 0 {
		return errors.New("max age must not be negative")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return cfg.Tables.Validate()
}

// Provider serves the distinct values that populate the filter controls.
type Provider struct {
	log   *slog.Logger
	cfg   ProviderConfig
	cache *lookupCache
}

// NewProvider returns a provider whose cache is keyed by a fresh session identity.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Provider{
		log:   cfg.Logger,
		cfg:   cfg,
		cache: newLookupCache(cfg.Clock, "session:"+uuid.NewString(), cfg.MaxAge),
	}, nil
}

// SetSnapshot keys subsequent lookups by a dataset version. Values cached under other
// snapshots are not served.
func (p *Provider) SetSnapshot(version string) {
	p.cache.setSnapshot("version:" + version)
	p.log.Info("orders: lookup snapshot changed", "version", version)
}

// Snapshot returns the current cache key.
func (p *Provider) Snapshot() string {
	return p.cache.currentSnapshot()
}

// Invalidate drops every cached lookup.
func (p *Provider) Invalidate() {
	p.cache.invalidate()
	p.log.Info("orders: lookup cache invalidated")
}

// PartTypes returns the distinct part types of active parts, ascending.
func (p *Provider) PartTypes(ctx context.Context) ([]string, error) {
	return cached(ctx, p.cache, lookupPartTypes, func(ctx context.Context) ([]string, error) {
		return p.distinct(ctx, lookupPartTypes, p.cfg.Tables.Part, colPartType)
	})
}

// Brands returns the distinct brands of active parts, ascending.
func (p *Provider) Brands(ctx context.Context) ([]string, error) {
	return cached(ctx, p.cache, lookupBrands, func(ctx context.Context) ([]string, error) {
		return p.distinct(ctx, lookupBrands, p.cfg.Tables.Part, colPartBrand)
	})
}

// SupplierNames returns the distinct names of active suppliers, ascending.
func (p *Provider) SupplierNames(ctx context.Context) ([]string, error) {
	return cached(ctx, p.cache, lookupSupplierNames, func(ctx context.Context) ([]string, error) {
		return p.distinct(ctx, lookupSupplierNames, p.cfg.Tables.Supplier, colSupplierName)
	})
}

type shipDateRangeRow struct {
	MinDate  time.Time `ch:"min_date"`
	MaxDate  time.Time `ch:"max_date"`
	RowCount uint64    `ch:"row_count"`
}

// ShipDateRange returns the earliest and latest ship date of the fact relation.
// An empty relation yields a zero range.
func (p *Provider) ShipDateRange(ctx context.Context) (DateRange, error) {
	return cached(ctx, p.cache, lookupShipDateRange, func(ctx context.Context) (DateRange, error) {
		conn, err := p.cfg.ClickHouse.Conn(ctx)
		if err != nil {
			return DateRange{}, fmt.Errorf("failed to get connection: %w", err)
		}
		defer conn.Close()

		shipDate := query.Col(colShipDate)
		q := query.From(query.Table(p.cfg.Tables.Fact)).Columns(
			query.As(query.Min(shipDate), "min_date"),
			query.As(query.Max(shipDate), "max_date"),
			query.As(query.Func("count"), "row_count"),
		)
		rows, err := queryTyped[shipDateRangeRow](ctx, conn, "lookup_"+lookupShipDateRange, q)
		if err != nil {
			return DateRange{}, err
		}
		if len(rows) == 0 || rows[0].RowCount == 0 {
			return DateRange{}, nil
		}
		return DateRange{From: rows[0].MinDate, To: rows[0].MaxDate}, nil
	})
}

// Lookups is every filter control's values.
type Lookups struct {
	PartTypes     []string  `json:"partTypes"`
	Brands        []string  `json:"brands"`
	SupplierNames []string  `json:"supplierNames"`
	ShipDates     DateRange `json:"shipDates"`
}

// Lookups returns all four lookups, each served from the cache when present.
func (p *Provider) Lookups(ctx context.Context) (*Lookups, error) {
	partTypes, err := p.PartTypes(ctx)
	if err != nil {
		return nil, err
	}
	brands, err := p.Brands(ctx)
	if err != nil {
		return nil, err
	}
	suppliers, err := p.SupplierNames(ctx)
	if err != nil {
		return nil, err
	}
	shipDates, err := p.ShipDateRange(ctx)
	if err != nil {
		return nil, err
	}
	return &Lookups{
		PartTypes:     partTypes,
		Brands:        brands,
		SupplierNames: suppliers,
		ShipDates:     shipDates,
	}, nil
}

// ResolveShipDates parses optional YYYY-MM-DD bounds. A missing bound defaults to the
// matching end of ShipDateRange, the range the date control starts with.
func (p *Provider) ResolveShipDates(ctx context.Context, from, to string) (DateRange, error) {
	var r DateRange
	if from == "" || to == "" {
		bounds, err := p.ShipDateRange(ctx)
		if err != nil {
			return DateRange{}, err
		}
		r = bounds
	}
	if from != "" {
		d, err := ParseDate(from)
		if err != nil {
			return DateRange{}, err
		}
		r.From = d
	}
	if to != "" {
		d, err := ParseDate(to)
		if err != nil {
			return DateRange{}, err
		}
		r.To = d
	}
	return r, nil
}

type valueRow struct {
	Value string `ch:"value"`
}

func (p *Provider) distinct(ctx context.Context, lookup, table, column string) ([]string, error) {
	conn, err := p.cfg.ClickHouse.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	q := query.From(query.Table(table)).
		Distinct().
		Columns(query.As(query.Col(column), "value")).
		Where(query.Eq(query.Col(colCurrentFlag), query.Lit(p.cfg.Tables.ActiveFlag))).
		OrderBy(query.Asc(query.Col("value")))

	rows, err := queryTyped[valueRow](ctx, conn, "lookup_"+lookup, q)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.Value
	}
	p.log.Debug("orders: lookup fetched", "lookup", lookup, "count", len(values))
	return values, nil
}
