package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rl1809/inventory-ledger/internal/adapter/storage/memory"
	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/logger"
	"github.com/rl1809/inventory-ledger/internal/port"
)

var errLedgerDown = errors.New("ledger write failed")

// Mock ItemRepository counting reads
type countingItems struct {
	port.ItemRepository
	finds atomic.Int32
}

func (c *countingItems) Find(ctx context.Context, id int64) (domain.Item, error) {
	c.finds.Add(1)
	return c.ItemRepository.Find(ctx, id)
}

// Mock Transactor whose units fail ledger writes
type failingLedgerTransactor struct {
	port.Transactor
	failCreate bool
	failDelete bool
	// zeroDelete makes Delete report nothing deleted without an error
	zeroDelete bool
}

func (f *failingLedgerTransactor) Begin(ctx context.Context) (port.Unit, error) {
	u, err := f.Transactor.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingLedgerUnit{Unit: u, cfg: f}, nil
}

type failingLedgerUnit struct {
	port.Unit
	cfg *failingLedgerTransactor
}

func (u *failingLedgerUnit) Transactions() port.TransactionRepository {
	return &failingLedger{TransactionRepository: u.Unit.Transactions(), cfg: u.cfg}
}

type failingLedger struct {
	port.TransactionRepository
	cfg *failingLedgerTransactor
}

func (l *failingLedger) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	if l.cfg.failCreate {
		return domain.Transaction{}, errLedgerDown
	}
	return l.TransactionRepository.Create(ctx, tx)
}

func (l *failingLedger) Delete(ctx context.Context, id int64) (bool, error) {
	if l.cfg.failDelete {
		return false, errLedgerDown
	}
	if l.cfg.zeroDelete {
		return false, nil
	}
	return l.TransactionRepository.Delete(ctx, id)
}

// Mock Transactor counting units
type countingTransactor struct {
	port.Transactor
	begins atomic.Int32
}

func (c *countingTransactor) Begin(ctx context.Context) (port.Unit, error) {
	c.begins.Add(1)
	return c.Transactor.Begin(ctx)
}

// Mock CacheRepository that always fails
type brokenCache struct{}

func (brokenCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("cache down")
}

func (brokenCache) Forget(context.Context, ...string) error {
	return errors.New("cache down")
}

// Mock Metrics
type recordingMetrics struct {
	mu        sync.Mutex
	stock     map[string]int
	workflows map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{stock: map[string]int{}, workflows: map[string]int{}}
}

func (m *recordingMetrics) StockAdjusted(dir domain.Direction, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[string(dir)+":"+outcome]++
}

func (m *recordingMetrics) WorkflowFinished(op, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[op+":"+state]++
}

func (m *recordingMetrics) workflow(op, state string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workflows[op+":"+state]
}

type fixture struct {
	store    *memory.Store
	cache    *memory.Cache
	items    *countingItems
	tx       port.Transactor
	metrics  *recordingMetrics
	stock    *StockService
	ledger   *TransactionService
	catalog  *ItemService
	category int64
	admin    domain.User
	staff    domain.User
}

type fixtureOption func(*fixture)

func withTransactor(wrap func(port.Transactor) port.Transactor) fixtureOption {
	return func(f *fixture) { f.tx = wrap(f.tx) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		cache:    memory.NewCache(),
		items:    &countingItems{ItemRepository: store.Items()},
		tx:       store,
		metrics:  newRecordingMetrics(),
		category: store.AddCategory("General"),
		admin:    store.AddUser("Admin", domain.RoleAdmin),
		staff:    store.AddUser("Staff", domain.RoleStaff),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.build(f.cache)
	return f
}

func (f *fixture) build(cache port.CacheRepository) {
	log := logger.Discard()
	f.stock = NewStockService(f.store.Items(), f.tx, cache, time.Hour, log, f.metrics)
	f.ledger = NewTransactionService(TransactionServiceDeps{
		Stock:       f.stock,
		Ledger:      f.store.Transactions(),
		Items:       f.items,
		Users:       f.store.Users(),
		Transactor:  f.tx,
		Locker:      memory.NewKeyedLocker(),
		Idempotency: f.cache,
		Cache:       cache,
		CacheTTL:    time.Hour,
		Logger:      log,
		Metrics:     f.metrics,
	})
	f.catalog = NewItemService(f.items, f.store.Categories(), f.store.Transactions(), cache, time.Hour, log)
}

func (f *fixture) newItem(t *testing.T, code string, stock int) domain.Item {
	t.Helper()
	req, err := domain.NewCreateItemRequest(f.category, "Item "+code, code, stock)
	if err != nil {
		t.Fatalf("item request: %v", err)
	}
	item, err := f.catalog.CreateItem(context.Background(), req)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func (f *fixture) move(t *testing.T, itemID int64, dir string, qty int) (domain.Transaction, error) {
	t.Helper()
	req, err := domain.NewTransactionRequest(itemID, f.admin.ID, dir, qty, nil)
	if err != nil {
		t.Fatalf("transaction request: %v", err)
	}
	return f.ledger.Create(context.Background(), req)
}

func (f *fixture) stockOf(t *testing.T, itemID int64) int {
	t.Helper()
	stock, err := f.store.Items().GetStock(context.Background(), itemID)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	return stock
}

func (f *fixture) entriesOf(t *testing.T, itemID int64) []domain.Transaction {
	t.Helper()
	entries, err := f.store.Transactions().ListByItem(context.Background(), itemID)
	if err != nil {
		t.Fatalf("ListByItem: %v", err)
	}
	return entries
}
