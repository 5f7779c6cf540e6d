package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

const itemColumns = `id, category_id, name, code, stock, created_at, updated_at`

type mysqlItems struct {
	q       querier
	locking bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var it domain.Item
	err := row.Scan(&it.ID, &it.CategoryID, &it.Name, &it.Code, &it.Stock, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *mysqlItems) GetStock(ctx context.Context, id int64) (int, error) {
	query := `SELECT stock FROM items WHERE id = ?`
	if r.locking {
		query += ` FOR UPDATE`
	}

	var stock int
	err := r.q.QueryRowContext(ctx, query, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return stock, nil
}

func (r *mysqlItems) SetStock(ctx context.Context, id int64, value int) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE items
		SET stock = ?, updated_at = NOW()
		WHERE id = ?`,
		value, id,
	)
	if err != nil {
		return false, fmt.Errorf("update stock: %w", err)
	}
	if err := r.requireAffected(ctx, result, id); err != nil {
		return false, err
	}
	return true, nil
}

func (r *mysqlItems) Find(ctx context.Context, id int64) (domain.Item, error) {
	it, err := scanItem(r.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, domain.ErrItemNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("query item: %w", err)
	}
	return it, nil
}

func (r *mysqlItems) Create(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO items (category_id, name, code, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, NOW(), NOW())`,
		req.CategoryID, req.Name, req.Code, req.Stock,
	)
	switch mysqlErrNumber(err) {
	case mysqlErrDuplicateEntry:
		return domain.Item{}, domain.ErrDuplicateCode
	case mysqlErrNoReferenced:
		return domain.Item{}, domain.ErrCategoryNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Item{}, fmt.Errorf("insert item id: %w", err)
	}
	return r.Find(ctx, id)
}

func (r *mysqlItems) Update(ctx context.Context, id int64, req domain.UpdateItemRequest) (domain.Item, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE items
		SET name = ?, updated_at = NOW()
		WHERE id = ?`,
		req.Name, id,
	)
	if err != nil {
		return domain.Item{}, fmt.Errorf("update item: %w", err)
	}
	if err := r.requireAffected(ctx, result, id); err != nil {
		return domain.Item{}, err
	}
	return r.Find(ctx, id)
}

func (r *mysqlItems) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, domain.ErrItemNotFound
	}
	return true, nil
}

func (r *mysqlItems) Paginate(ctx context.Context, categoryID int64, page, perPage int) (domain.Page[domain.Item], error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE category_id = ?`, categoryID).Scan(&total); err != nil {
		return domain.Page[domain.Item]{}, fmt.Errorf("count items: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items WHERE category_id = ?
		ORDER BY id LIMIT ? OFFSET ?`,
		categoryID, perPage, domain.PageOffset(page, perPage),
	)
	if err != nil {
		return domain.Page[domain.Item]{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var data []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return domain.Page[domain.Item]{}, fmt.Errorf("scan item: %w", err)
		}
		data = append(data, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Item]{}, fmt.Errorf("iterate items: %w", err)
	}
	return domain.NewPage(data, page, perPage, total), nil
}

// requireAffected tells a missing row apart from an unchanged one; MySQL
// reports zero affected rows for both.
func (r *mysqlItems) requireAffected(ctx context.Context, result sql.Result, id int64) error {
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("query item: %w", err)
	}
	if !exists {
		return domain.ErrItemNotFound
	}
	return nil
}
