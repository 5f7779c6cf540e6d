package memory

import (
	"context"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

type ledgerRepo struct {
	store *Store
	unit  *unit
}

func (r *ledgerRepo) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	err := access(ctx, r.store, r.unit, func() error {
		if _, ok := r.store.items[tx.ItemID]; !ok {
			return domain.ErrItemNotFound
		}
		if _, ok := r.store.users[tx.UserID]; !ok {
			return domain.ErrUserNotFound
		}
		r.store.nextEntryID++
		tx.ID = r.store.nextEntryID
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = r.store.now()
		}
		r.store.entries[tx.ID] = tx
		record(r.unit, func() { delete(r.store.entries, tx.ID) })
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

func (r *ledgerRepo) Delete(ctx context.Context, id int64) (bool, error) {
	err := access(ctx, r.store, r.unit, func() error {
		entry, ok := r.store.entries[id]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		delete(r.store.entries, id)
		record(r.unit, func() { r.store.entries[id] = entry })
		return nil
	})
	return err == nil, err
}

func (r *ledgerRepo) Find(ctx context.Context, id int64) (domain.Transaction, error) {
	var entry domain.Transaction
	err := access(ctx, r.store, r.unit, func() error {
		found, ok := r.store.entries[id]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		entry = found
		return nil
	})
	return entry, err
}

func (r *ledgerRepo) Paginate(ctx context.Context, page, perPage int) (domain.Page[domain.Transaction], error) {
	var result domain.Page[domain.Transaction]
	err := access(ctx, r.store, r.unit, func() error {
		ids := sortedKeys(r.store.entries, func(domain.Transaction) bool { return true })
		data := make([]domain.Transaction, 0, perPage)
		for _, id := range window(ids, page, perPage) {
			data = append(data, r.store.entries[id])
		}
		result = domain.NewPage(data, page, perPage, int64(len(ids)))
		return nil
	})
	return result, err
}

func (r *ledgerRepo) ListByItem(ctx context.Context, itemID int64) ([]domain.Transaction, error) {
	var entries []domain.Transaction
	err := access(ctx, r.store, r.unit, func() error {
		ids := sortedKeys(r.store.entries, func(e domain.Transaction) bool { return e.ItemID == itemID })
		entries = make([]domain.Transaction, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, r.store.entries[id])
		}
		return nil
	})
	return entries, err
}
