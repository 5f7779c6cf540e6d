package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/port"
)

const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrNoReferenced   = 1452
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Items() port.ItemRepository {
	return &mysqlItems{q: m.db}
}

func (m *MySQLAdapter) Transactions() port.TransactionRepository {
	return &mysqlLedger{q: m.db}
}

func (m *MySQLAdapter) Categories() port.CategoryRepository {
	return &mysqlCategories{q: m.db}
}

func (m *MySQLAdapter) Users() port.UserRepository {
	return &mysqlUsers{q: m.db}
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Begin opens a unit. Stock reads made through it lock the item row until
// the unit ends, so concurrent adjustments of one item are serialized.
func (m *MySQLAdapter) Begin(ctx context.Context) (port.Unit, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &mysqlUnit{tx: tx}, nil
}

type mysqlUnit struct {
	tx   *sql.Tx
	done bool
}

func (u *mysqlUnit) Items() port.ItemRepository {
	return &mysqlItems{q: u.tx, locking: true}
}

func (u *mysqlUnit) Transactions() port.TransactionRepository {
	return &mysqlLedger{q: u.tx}
}

func (u *mysqlUnit) Commit() error {
	if u.done {
		return port.ErrUnitClosed
	}
	u.done = true
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (u *mysqlUnit) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback tx: %w", err)
	}
	return nil
}

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

type mysqlCategories struct {
	q querier
}

func (r *mysqlCategories) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query category: %w", err)
	}
	return exists, nil
}

type mysqlUsers struct {
	q querier
}

func (r *mysqlUsers) Find(ctx context.Context, id int64) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := r.q.QueryRowContext(ctx, `SELECT id, name, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	if u.Role, err = domain.ParseRole(role); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
