// Package memory keeps the whole inventory in process memory. Units hold the
// store exclusively until they end, so stock mutations are serialized.
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/port"
)

type Store struct {
	sem chan struct{}

	items      map[int64]domain.Item
	codes      map[string]int64
	entries    map[int64]domain.Transaction
	users      map[int64]domain.User
	categories map[int64]string

	nextItemID     int64
	nextEntryID    int64
	nextUserID     int64
	nextCategoryID int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		sem:        make(chan struct{}, 1),
		items:      make(map[int64]domain.Item),
		codes:      make(map[string]int64),
		entries:    make(map[int64]domain.Transaction),
		users:      make(map[int64]domain.User),
		categories: make(map[int64]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

func (s *Store) Items() port.ItemRepository {
	return &itemRepo{store: s}
}

func (s *Store) Transactions() port.TransactionRepository {
	return &ledgerRepo{store: s}
}

func (s *Store) Categories() port.CategoryRepository {
	return categoryRepo{store: s}
}

func (s *Store) Users() port.UserRepository {
	return userRepo{store: s}
}

func (s *Store) Begin(ctx context.Context) (port.Unit, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	return &unit{store: s}, nil
}

func (s *Store) AddCategory(name string) int64 {
	s.sem <- struct{}{}
	defer s.release()
	s.nextCategoryID++
	s.categories[s.nextCategoryID] = name
	return s.nextCategoryID
}

func (s *Store) AddUser(name string, role domain.Role) domain.User {
	s.sem <- struct{}{}
	defer s.release()
	s.nextUserID++
	u := domain.User{ID: s.nextUserID, Name: name, Role: role}
	s.users[u.ID] = u
	return u
}

type unit struct {
	store  *Store
	undos  []func()
	closed bool
}

func (u *unit) Items() port.ItemRepository {
	return &itemRepo{store: u.store, unit: u}
}

func (u *unit) Transactions() port.TransactionRepository {
	return &ledgerRepo{store: u.store, unit: u}
}

func (u *unit) Commit() error {
	if u.closed {
		return port.ErrUnitClosed
	}
	u.closed = true
	u.undos = nil
	u.store.release()
	return nil
}

func (u *unit) Rollback() error {
	if u.closed {
		return nil
	}
	for i := len(u.undos) - 1; i >= 0; i-- {
		u.undos[i]()
	}
	u.closed = true
	u.undos = nil
	u.store.release()
	return nil
}

// access runs fn with exclusive use of the store: either through the
// unit that already holds it or by taking it for this call only.
func access(ctx context.Context, s *Store, u *unit, fn func() error) error {
	if u != nil {
		if u.closed {
			return port.ErrUnitClosed
		}
		return fn()
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn()
}

func record(u *unit, undo func()) {
	if u != nil {
		u.undos = append(u.undos, undo)
	}
}

func sortedKeys[V any](m map[int64]V, keep func(V) bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func window(ids []int64, page, perPage int) []int64 {
	from := domain.PageOffset(page, perPage)
	if from >= len(ids) {
		return nil
	}
	to := from + perPage
	if to > len(ids) {
		to = len(ids)
	}
	return ids[from:to]
}

type categoryRepo struct {
	store *Store
}

func (r categoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := access(ctx, r.store, nil, func() error {
		_, ok = r.store.categories[id]
		return nil
	})
	return ok, err
}

type userRepo struct {
	store *Store
}

func (r userRepo) Find(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := access(ctx, r.store, nil, func() error {
		found, ok := r.store.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		u = found
		return nil
	})
	return u, err
}
