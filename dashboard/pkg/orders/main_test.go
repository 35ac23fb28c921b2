package orders

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
	clickhousetesting "github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse/testing"
	dashtesting "github.com/malbeclabs/orders-dashboard/utils/pkg/testing"
)

var sharedDB *clickhousetesting.DB

func TestMain(m *testing.M) {
	log := dashtesting.NewLogger()
	var err error
	sharedDB, err = clickhousetesting.NewDB(context.Background(), log, nil)
	if err != nil {
		log.Error("failed to create shared DB", "error", err)
		os.Exit(1)
	}
	code := m.Run()
	sharedDB.Close()
	os.Exit(code)
}

type part struct {
	key   uint64
	typ   string
	brand string
	flag  string
}

type supplier struct {
	key  uint64
	name string
	flag string
}

type line struct {
	orderKey    uint64
	lineNumber  int32
	partKey     uint64
	supplierKey uint64
	price       float64
	discount    float64
	shipDate    string
	commitDate  string
	receiptDate string
	orderDate   string
	status      string
	priorityNum string
	priority    string
}

// testFixture is a migrated database seeded through the helpers below.
type testFixture struct {
	client clickhouse.Client
	conn   clickhouse.Connection
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	info := clickhousetesting.NewTestClient(t, sharedDB)
	conn, err := info.Client.Conn(t.Context())
	require.NoError(t, err)
	return &testFixture{client: info.Client, conn: conn}
}

func (f *testFixture) parts(t *testing.T, parts ...part) {
	t.Helper()
	for _, p := range parts {
		flag := p.flag
		if flag == "" {
			flag = "Y"
		}
		err := f.conn.Exec(t.Context(), `INSERT INTO dim_part
			(DIM_PART_KEY, P_PARTKEY, P_NAME, P_BRAND, P_MFGR, P_TYPE, P_SIZE, P_CONTAINER, P_RETAILPRICE, SYSTEM_CURRENT_FLAG)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.key, p.key+1000, fmt.Sprintf("part %d", p.key), p.brand, "Manufacturer#1", p.typ, 7, "SM BOX", 901.5, flag)
		require.NoError(t, err)
	}
}

func (f *testFixture) suppliers(t *testing.T, suppliers ...supplier) {
	t.Helper()
	for _, s := range suppliers {
		flag := s.flag
		if flag == "" {
			flag = "Y"
		}
		err := f.conn.Exec(t.Context(), `INSERT INTO dim_supplier
			(DIM_SUPPLIER_KEY, S_SUPPKEY, S_NAME, S_ACCTBAL, SYSTEM_CURRENT_FLAG)
			VALUES (?, ?, ?, ?, ?)`,
			s.key, s.key+2000, s.name, 1500.25, flag)
		require.NoError(t, err)
	}
}

func (f *testFixture) lines(t *testing.T, lines ...line) {
	t.Helper()
	for _, l := range lines {
		commit := l.commitDate
		if commit == "" {
			commit = l.shipDate
		}
		receipt := l.receiptDate
		if receipt == "" {
			receipt = l.shipDate
		}
		orderDate := l.orderDate
		if orderDate == "" {
			orderDate = l.shipDate
		}
		status := l.status
		if status == "" {
			status = "F"
		}
		num, desc := l.priorityNum, l.priority
		if num == "" {
			num, desc = "3", "MEDIUM"
		}
		lineNumber := l.lineNumber
		if lineNumber == 0 {
			lineNumber = 1
		}
		err := f.conn.Exec(t.Context(), `INSERT INTO fct_lineitem_orders_dim_lookup
			(DIM_PART_KEY, DIM_SUPPLIER_KEY, O_CUSTKEY, LINEITEM_ORDERKEY, LINEITEM_LINENUMBER,
			 LINEITEM_QUANTITY, LINEITEM_EXTENDEDPRICE, LINEITEM_DISCOUNT, LINEITEM_TAX, LINEITEM_LINESTATUS,
			 LINEITEM_SHIPDATE, LINEITEM_COMMITDATE, LINEITEM_RECEIPTDATE, LINEITEM_SHIPINSTRUCT, LINEITEM_SHIPMODE,
			 ORDER_TOTALPRICE, ORDER_ORDERDATE, ORDER_ORDERSTATUS, ORDER_ORDERPRIORITY_NUM, ORDER_ORDERPRIORITY_DESC,
			 ORDER_SHIPPRIORITY, `+"`DAYS TO SHIP`"+`, PS_AVAILQTY, PS_SUPPLYCOST)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.partKey, l.supplierKey, 42, l.orderKey, lineNumber,
			3, l.price, l.discount, 0.02, "O",
			l.shipDate, commit, receipt, "DELIVER IN PERSON", "TRUCK",
			l.price, orderDate, status, num, desc,
			0, 5, 100, 12.5)
		require.NoError(t, err)
	}
}

// newTestProvider returns a provider over the fixture's database.
func (f *testFixture) provider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(ProviderConfig{
		Logger:     dashtesting.NewLogger(),
		ClickHouse: f.client,
	})
	require.NoError(t, err)
	return p
}

func assemble(t *testing.T, sel Selection) *Dataset {
	t.Helper()
	a, err := NewAssembler(Tables{})
	require.NoError(t, err)
	ds, err := a.Assemble(sel)
	require.NoError(t, err)
	return ds
}

func january() DateRange {
	return DateRange{From: day("2024-01-01"), To: day("2024-01-31")}
}
