package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/port"
)

// newItem also makes sure user 1 exists to author entries.
func newItem(t *testing.T, s *Store, code string, stock int) domain.Item {
	t.Helper()
	if len(s.users) == 0 {
		s.AddUser("Author", domain.RoleAdmin)
	}
	category := s.AddCategory("General")
	req, err := domain.NewCreateItemRequest(category, "Item "+code, code, stock)
	if err != nil {
		t.Fatalf("item request: %v", err)
	}
	item, err := s.Items().Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func TestUnit_CommitKeepsWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := newItem(t, s, "A", 10)

	unit, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := unit.Items().SetStock(ctx, item.ID, 7); err != nil {
		t.Fatalf("SetStock: %v", err)
	}
	if _, err := unit.Transactions().Create(ctx, domain.Transaction{ItemID: item.ID, UserID: 1, Type: domain.DirectionOut, Quantity: 3}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := unit.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	stock, _ := s.Items().GetStock(ctx, item.ID)
	if stock != 7 {
		t.Errorf("expected stock 7, got %d", stock)
	}
	entries, _ := s.Transactions().ListByItem(ctx, item.ID)
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestUnit_RollbackRestoresState(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := newItem(t, s, "A", 10)

	unit, _ := s.Begin(ctx)
	unit.Items().SetStock(ctx, item.ID, 1)
	unit.Items().SetStock(ctx, item.ID, 2)
	entry, _ := unit.Transactions().Create(ctx, domain.Transaction{ItemID: item.ID, UserID: 1, Type: domain.DirectionIn, Quantity: 3})
	if err := unit.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	stock, _ := s.Items().GetStock(ctx, item.ID)
	if stock != 10 {
		t.Errorf("expected stock 10 after rollback, got %d", stock)
	}
	if _, err := s.Transactions().Find(ctx, entry.ID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected entry gone after rollback, got %v", err)
	}
}

func TestUnit_ClosedSemantics(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := newItem(t, s, "A", 1)

	unit, _ := s.Begin(ctx)
	if err := unit.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := unit.Commit(); !errors.Is(err, port.ErrUnitClosed) {
		t.Errorf("expected ErrUnitClosed on second commit, got %v", err)
	}
	if err := unit.Rollback(); err != nil {
		t.Errorf("expected rollback after commit to be a no-op, got %v", err)
	}
	if _, err := unit.Items().GetStock(ctx, item.ID); !errors.Is(err, port.ErrUnitClosed) {
		t.Errorf("expected ErrUnitClosed using closed unit, got %v", err)
	}

	// the store is free again
	next, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin after close: %v", err)
	}
	next.Rollback()
}

func TestBegin_WaitsForOpenUnit(t *testing.T) {
	s := NewStore()
	unit, _ := s.Begin(context.Background())
	defer unit.Rollback()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Begin(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded while another unit is open, got %v", err)
	}
}

func TestItems_NotFoundAndDuplicate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := newItem(t, s, "A", 1)

	if _, err := s.Items().GetStock(ctx, 99); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if ok, err := s.Items().SetStock(ctx, 99, 1); ok || !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected (false, ErrItemNotFound), got (%v, %v)", ok, err)
	}
	req, _ := domain.NewCreateItemRequest(item.CategoryID, "Other", "A", 1)
	if _, err := s.Items().Create(ctx, req); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Errorf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestItems_DeleteCascadesEntries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := newItem(t, s, "A", 5)
	entry, _ := s.Transactions().Create(ctx, domain.Transaction{ItemID: item.ID, UserID: 1, Type: domain.DirectionIn, Quantity: 5})

	ok, err := s.Items().Delete(ctx, item.ID)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if _, err := s.Transactions().Find(ctx, entry.ID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected cascaded entry to be gone, got %v", err)
	}

	// code is free again
	req, _ := domain.NewCreateItemRequest(item.CategoryID, "Again", "A", 1)
	if _, err := s.Items().Create(ctx, req); err != nil {
		t.Errorf("expected code reuse after delete, got %v", err)
	}
}

func TestLedger_Paginate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := newItem(t, s, "A", 100)
	for i := 0; i < 23; i++ {
		s.Transactions().Create(ctx, domain.Transaction{ItemID: item.ID, UserID: 1, Type: domain.DirectionIn, Quantity: 1})
	}

	page, err := s.Transactions().Paginate(ctx, 3, 10)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if page.Total != 23 || page.LastPage != 3 || len(page.Data) != 3 {
		t.Errorf("unexpected page: total=%d last=%d len=%d", page.Total, page.LastPage, len(page.Data))
	}
	if page.Data[0].ID != 21 {
		t.Errorf("expected first id 21 on page 3, got %d", page.Data[0].ID)
	}

	empty, _ := s.Transactions().Paginate(ctx, 9, 10)
	if len(empty.Data) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(empty.Data))
	}
}

func TestLedger_CreateUnknownItem(t *testing.T) {
	s := NewStore()
	if _, err := s.Transactions().Create(context.Background(), domain.Transaction{ItemID: 5, Quantity: 1}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestLedger_CreateUnknownUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := newItem(t, s, "A", 1)

	_, err := s.Transactions().Create(ctx, domain.Transaction{ItemID: item.ID, UserID: 999, Type: domain.DirectionIn, Quantity: 1})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	entries, _ := s.Transactions().ListByItem(ctx, item.ID)
	if len(entries) != 0 {
		t.Errorf("expected no entry for an unknown author, got %d", len(entries))
	}
}

func TestUsersAndCategories(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	category := s.AddCategory("Tools")
	staff := s.AddUser("Sam", domain.RoleStaff)

	if ok, _ := s.Categories().Exists(ctx, category); !ok {
		t.Error("expected category to exist")
	}
	if ok, _ := s.Categories().Exists(ctx, category+1); ok {
		t.Error("expected unknown category to be missing")
	}
	u, err := s.Users().Find(ctx, staff.ID)
	if err != nil || u.Role != domain.RoleStaff {
		t.Errorf("unexpected user %+v err=%v", u, err)
	}
	if _, err := s.Users().Find(ctx, 42); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
