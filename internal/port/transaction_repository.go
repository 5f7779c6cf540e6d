package port

import (
	"context"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

// TransactionRepository is the append/delete-only stock ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Find(ctx context.Context, id int64) (domain.Transaction, error)
	Paginate(ctx context.Context, page, perPage int) (domain.Page[domain.Transaction], error)
	ListByItem(ctx context.Context, itemID int64) ([]domain.Transaction, error)
}
