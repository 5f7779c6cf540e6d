package port

import (
	"context"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

type ItemRepository interface {
	// GetStock returns the current stock counter. Inside a unit the row stays
	// locked until the unit ends.
	GetStock(ctx context.Context, id int64) (int, error)

	// SetStock overwrites the stock counter; callers validate the value
	SetStock(ctx context.Context, id int64, value int) (bool, error)

	Find(ctx context.Context, id int64) (domain.Item, error)
	Create(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error)
	Update(ctx context.Context, id int64, req domain.UpdateItemRequest) (domain.Item, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Paginate(ctx context.Context, categoryID int64, page, perPage int) (domain.Page[domain.Item], error)
}

type CategoryRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type UserRepository interface {
	Find(ctx context.Context, id int64) (domain.User, error)
}
