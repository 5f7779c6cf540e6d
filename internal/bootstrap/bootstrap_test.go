package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rl1809/inventory-ledger/internal/config"
	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/logger"
)

func TestNew_MemoryDriver(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Driver = config.DriverMemory
	cfg.Cache.TTL = time.Hour

	reg := prometheus.NewRegistry()
	app, err := New(context.Background(), cfg, logger.Discard(), reg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	if app.Memory == nil {
		t.Fatal("expected the memory store to be exposed")
	}
	if len(app.Backends) != 0 {
		t.Errorf("expected no pingable backends, got %v", app.Backends)
	}

	ctx := context.Background()
	req, _ := domain.NewCreateItemRequest(1, "Seeded", "S-1", 5)
	item, err := app.Items.CreateItem(ctx, req)
	if err != nil {
		t.Fatalf("seeded category should accept items: %v", err)
	}
	movement, _ := domain.NewTransactionRequest(item.ID, 1, "out", 2, nil)
	if _, err := app.Transactions.Create(ctx, movement); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n == 0 {
		t.Error("expected workflow metrics to be registered")
	}
}
