package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/logger"
	"github.com/rl1809/inventory-ledger/internal/port"
)

// StockService owns every change to an item's stock counter. Each call is a
// single read-check-write inside an atomic unit: the caller's unit when one
// is open, otherwise its own.
type StockService struct {
	items   port.ItemRepository
	tx      port.Transactor
	cache   cacheStore
	logger  *logrus.Logger
	metrics Metrics
}

func NewStockService(items port.ItemRepository, tx port.Transactor, cache port.CacheRepository, cacheTTL time.Duration, logger *logrus.Logger, metrics Metrics) *StockService {
	return &StockService{
		items:   items,
		tx:      tx,
		cache:   newCacheStore(cache, cacheTTL, logger),
		logger:  logger,
		metrics: orNop(metrics),
	}
}

func (s *StockService) GetStock(ctx context.Context, itemID int64) (int, error) {
	return s.items.GetStock(ctx, itemID)
}

// DecrementStock fails with ErrInsufficientStock without writing when the
// item holds less than amount.
func (s *StockService) DecrementStock(ctx context.Context, itemID int64, amount int) (bool, error) {
	return s.adjust(ctx, itemID, domain.DirectionOut, amount)
}

// IncrementStock has no upper bound.
func (s *StockService) IncrementStock(ctx context.Context, itemID int64, amount int) (bool, error) {
	return s.adjust(ctx, itemID, domain.DirectionIn, amount)
}

// Apply moves stock in the given direction.
func (s *StockService) Apply(ctx context.Context, itemID int64, dir domain.Direction, amount int) (bool, error) {
	return s.adjust(ctx, itemID, dir, amount)
}

func (s *StockService) adjust(ctx context.Context, itemID int64, dir domain.Direction, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}

	var written bool
	err := RunInUnit(ctx, s.tx, func(ctx context.Context, unit port.Unit) error {
		items := unit.Items()

		current, err := items.GetStock(ctx, itemID)
		if err != nil {
			return err
		}

		next := current + amount
		if dir == domain.DirectionOut {
			if current < amount {
				return domain.ErrInsufficientStock
			}
			next = current - amount
		}

		written, err = items.SetStock(ctx, itemID, next)
		if err != nil {
			return err
		}
		if !written {
			return nil
		}

		s.cache.invalidate(ctx, ItemKey(itemID))
		logger.Channel(s.logger, logger.ChannelStocks).WithFields(logrus.Fields{
			"id":        itemID,
			"direction": dir,
			"amount":    amount,
			"stock":     next,
		}).Info(stockMessage(dir))
		return nil
	})

	s.metrics.StockAdjusted(dir, stockOutcome(written, err))
	if err != nil {
		return false, err
	}
	return written, nil
}

func stockMessage(dir domain.Direction) string {
	if dir == domain.DirectionOut {
		return "Decrement stock item."
	}
	return "Increment stock item."
}

func stockOutcome(written bool, err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case err != nil:
		return "error"
	case !written:
		return "noop"
	}
	return "ok"
}
