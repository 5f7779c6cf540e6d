package port

import (
	"context"
	"errors"
)

var ErrUnitClosed = errors.New("unit already committed or rolled back")

// Transactor opens atomic units spanning stock and ledger writes.
type Transactor interface {
	Begin(ctx context.Context) (Unit, error)
}

// Unit is one atomic boundary. Repositories it hands out see its staged
// writes. Commit on a closed unit returns ErrUnitClosed; Rollback on a
// closed unit is a no-op.
type Unit interface {
	Items() ItemRepository
	Transactions() TransactionRepository
	Commit() error
	Rollback() error
}
