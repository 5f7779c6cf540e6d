package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/inventory-ledger/internal/port"
)

type scopeKey struct{}

type unitScope struct {
	unit        port.Unit
	afterCommit []func(context.Context)
}

// RunInUnit runs fn inside an atomic unit. If ctx already carries a unit,
// fn joins it and the outermost caller decides commit or rollback. Errors
// from fn are returned as-is after the rollback.
func RunInUnit(ctx context.Context, tx port.Transactor, fn func(ctx context.Context, unit port.Unit) error) error {
	if sc, ok := ctx.Value(scopeKey{}).(*unitScope); ok {
		return fn(ctx, sc.unit)
	}

	unit, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit: %w", err)
	}
	// no-op once committed; covers panics in fn
	defer unit.Rollback()

	sc := &unitScope{unit: unit}
	if err := fn(context.WithValue(ctx, scopeKey{}, sc), unit); err != nil {
		if rbErr := unit.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback unit: %w", rbErr))
		}
		return err
	}

	if err := unit.Commit(); err != nil {
		return fmt.Errorf("commit unit: %w", err)
	}

	for _, hook := range sc.afterCommit {
		hook(ctx)
	}
	return nil
}

// AfterCommit defers hook until the enclosing unit commits. Outside a unit
// the hook runs immediately; if the unit rolls back it never runs.
func AfterCommit(ctx context.Context, hook func(context.Context)) {
	if sc, ok := ctx.Value(scopeKey{}).(*unitScope); ok {
		sc.afterCommit = append(sc.afterCommit, hook)
		return
	}
	hook(ctx)
}

func inUnit(ctx context.Context) bool {
	_, ok := ctx.Value(scopeKey{}).(*unitScope)
	return ok
}
