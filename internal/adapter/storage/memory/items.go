package memory

import (
	"context"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

type itemRepo struct {
	store *Store
	unit  *unit
}

func (r *itemRepo) GetStock(ctx context.Context, id int64) (int, error) {
	var stock int
	err := access(ctx, r.store, r.unit, func() error {
		item, ok := r.store.items[id]
		if !ok {
			return domain.ErrItemNotFound
		}
		stock = item.Stock
		return nil
	})
	return stock, err
}

func (r *itemRepo) SetStock(ctx context.Context, id int64, value int) (bool, error) {
	err := access(ctx, r.store, r.unit, func() error {
		item, ok := r.store.items[id]
		if !ok {
			return domain.ErrItemNotFound
		}
		prev := item
		item.Stock = value
		item.UpdatedAt = r.store.now()
		r.store.items[id] = item
		record(r.unit, func() { r.store.items[id] = prev })
		return nil
	})
	return err == nil, err
}

func (r *itemRepo) Find(ctx context.Context, id int64) (domain.Item, error) {
	var item domain.Item
	err := access(ctx, r.store, r.unit, func() error {
		found, ok := r.store.items[id]
		if !ok {
			return domain.ErrItemNotFound
		}
		item = found
		return nil
	})
	return item, err
}

func (r *itemRepo) Create(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	var item domain.Item
	err := access(ctx, r.store, r.unit, func() error {
		if _, taken := r.store.codes[req.Code]; taken {
			return domain.ErrDuplicateCode
		}
		r.store.nextItemID++
		now := r.store.now()
		item = domain.Item{
			ID:         r.store.nextItemID,
			CategoryID: req.CategoryID,
			Name:       req.Name,
			Code:       req.Code,
			Stock:      req.Stock,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		r.store.items[item.ID] = item
		r.store.codes[item.Code] = item.ID
		record(r.unit, func() {
			delete(r.store.items, item.ID)
			delete(r.store.codes, item.Code)
		})
		return nil
	})
	return item, err
}

func (r *itemRepo) Update(ctx context.Context, id int64, req domain.UpdateItemRequest) (domain.Item, error) {
	var item domain.Item
	err := access(ctx, r.store, r.unit, func() error {
		found, ok := r.store.items[id]
		if !ok {
			return domain.ErrItemNotFound
		}
		prev := found
		found.Name = req.Name
		found.UpdatedAt = r.store.now()
		r.store.items[id] = found
		record(r.unit, func() { r.store.items[id] = prev })
		item = found
		return nil
	})
	return item, err
}

func (r *itemRepo) Delete(ctx context.Context, id int64) (bool, error) {
	err := access(ctx, r.store, r.unit, func() error {
		item, ok := r.store.items[id]
		if !ok {
			return domain.ErrItemNotFound
		}
		delete(r.store.items, id)
		delete(r.store.codes, item.Code)

		var cascaded []domain.Transaction
		for eid, e := range r.store.entries {
			if e.ItemID == id {
				cascaded = append(cascaded, e)
				delete(r.store.entries, eid)
			}
		}
		record(r.unit, func() {
			r.store.items[id] = item
			r.store.codes[item.Code] = id
			for _, e := range cascaded {
				r.store.entries[e.ID] = e
			}
		})
		return nil
	})
	return err == nil, err
}

func (r *itemRepo) Paginate(ctx context.Context, categoryID int64, page, perPage int) (domain.Page[domain.Item], error) {
	var result domain.Page[domain.Item]
	err := access(ctx, r.store, r.unit, func() error {
		ids := sortedKeys(r.store.items, func(it domain.Item) bool { return it.CategoryID == categoryID })
		data := make([]domain.Item, 0, perPage)
		for _, id := range window(ids, page, perPage) {
			data = append(data, r.store.items[id])
		}
		result = domain.NewPage(data, page, perPage, int64(len(ids)))
		return nil
	})
	return result, err
}
