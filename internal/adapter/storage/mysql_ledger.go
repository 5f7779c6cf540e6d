package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

const ledgerColumns = `id, item_id, user_id, type, quantity, description, created_at`

type mysqlLedger struct {
	q querier
}

func scanEntry(row rowScanner) (domain.Transaction, error) {
	var (
		e    domain.Transaction
		typ  string
		desc sql.NullString
	)
	if err := row.Scan(&e.ID, &e.ItemID, &e.UserID, &typ, &e.Quantity, &desc, &e.CreatedAt); err != nil {
		return domain.Transaction{}, err
	}
	e.Type = domain.Direction(typ)
	if desc.Valid {
		e.Description = &desc.String
	}
	return e, nil
}

func (r *mysqlLedger) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO transactions (item_id, user_id, type, quantity, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ItemID, tx.UserID, string(tx.Type), tx.Quantity, tx.Description, tx.CreatedAt, tx.CreatedAt,
	)
	// the item row is already locked by the stock step, so a broken
	// reference here is the author
	if mysqlErrNumber(err) == mysqlErrNoReferenced {
		return domain.Transaction{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("insert transaction id: %w", err)
	}
	tx.ID = id
	return tx, nil
}

func (r *mysqlLedger) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, domain.ErrTransactionNotFound
	}
	return true, nil
}

func (r *mysqlLedger) Find(ctx context.Context, id int64) (domain.Transaction, error) {
	e, err := scanEntry(r.q.QueryRowContext(ctx, `SELECT `+ledgerColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("query transaction: %w", err)
	}
	return e, nil
}

func (r *mysqlLedger) Paginate(ctx context.Context, page, perPage int) (domain.Page[domain.Transaction], error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return domain.Page[domain.Transaction]{}, fmt.Errorf("count transactions: %w", err)
	}

	data, err := r.list(ctx, `
		SELECT `+ledgerColumns+`
		FROM transactions
		ORDER BY id LIMIT ? OFFSET ?`,
		perPage, domain.PageOffset(page, perPage),
	)
	if err != nil {
		return domain.Page[domain.Transaction]{}, err
	}
	return domain.NewPage(data, page, perPage, total), nil
}

func (r *mysqlLedger) ListByItem(ctx context.Context, itemID int64) ([]domain.Transaction, error) {
	return r.list(ctx, `
		SELECT `+ledgerColumns+`
		FROM transactions WHERE item_id = ?
		ORDER BY id`,
		itemID,
	)
}

func (r *mysqlLedger) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	entries := []domain.Transaction{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return entries, nil
}
