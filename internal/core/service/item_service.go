package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/logger"
	"github.com/rl1809/inventory-ledger/internal/port"
)

type ItemService struct {
	items      port.ItemRepository
	categories port.CategoryRepository
	ledger     port.TransactionRepository
	cache      cacheStore
	logger     *logrus.Logger
}

func NewItemService(items port.ItemRepository, categories port.CategoryRepository, ledger port.TransactionRepository, cache port.CacheRepository, cacheTTL time.Duration, logger *logrus.Logger) *ItemService {
	return &ItemService{
		items:      items,
		categories: categories,
		ledger:     ledger,
		cache:      newCacheStore(cache, cacheTTL, logger),
		logger:     logger,
	}
}

func (s *ItemService) FindItem(ctx context.Context, id int64) (domain.Item, error) {
	return Remember(ctx, s.cache.backend, s.logger, ItemKey(id), s.cache.ttl, func(ctx context.Context) (domain.Item, error) {
		return s.items.Find(ctx, id)
	})
}

func (s *ItemService) PaginateItems(ctx context.Context, categoryID int64, page, perPage int) (domain.Page[domain.Item], error) {
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return domain.Page[domain.Item]{}, err
	}
	page, perPage = domain.NormalizePage(page, perPage)
	return s.items.Paginate(ctx, categoryID, page, perPage)
}

func (s *ItemService) CreateItem(ctx context.Context, req domain.CreateItemRequest) (domain.Item, error) {
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return domain.Item{}, err
	}

	item, err := s.items.Create(ctx, req)
	if err != nil {
		return domain.Item{}, err
	}

	logger.Channel(s.logger, logger.ChannelModel).WithFields(logrus.Fields{
		"id":   item.ID,
		"name": item.Name,
	}).Info("Create item.")
	return item, nil
}

// UpdateItem renames an item. Stock only moves through ledger entries.
func (s *ItemService) UpdateItem(ctx context.Context, id int64, req domain.UpdateItemRequest) (domain.Item, error) {
	item, err := s.items.Update(ctx, id, req)
	if err != nil {
		return domain.Item{}, err
	}

	// detailed ledger views embed the item name
	keys := []string{ItemKey(id)}
	entries, err := s.ledger.ListByItem(ctx, id)
	if err != nil {
		logger.LogError(s.logger, "item", "UpdateItem", "list entries for invalidation failed", id, err)
	}
	for _, e := range entries {
		keys = append(keys, transactionKeys(e.ID)...)
	}
	s.cache.forget(ctx, keys...)
	logger.Channel(s.logger, logger.ChannelModel).WithFields(logrus.Fields{
		"id":   item.ID,
		"name": item.Name,
	}).Info("Update item.")
	return item, nil
}

// DeleteItem removes the item and, through the cascade, its ledger entries.
func (s *ItemService) DeleteItem(ctx context.Context, id int64) (bool, error) {
	entries, err := s.ledger.ListByItem(ctx, id)
	if err != nil {
		return false, err
	}

	ok, err := s.items.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}

	keys := []string{ItemKey(id)}
	for _, e := range entries {
		keys = append(keys, transactionKeys(e.ID)...)
	}
	s.cache.forget(ctx, keys...)
	logger.Channel(s.logger, logger.ChannelModel).WithField("id", id).Info("Delete item.")
	return true, nil
}

func (s *ItemService) requireCategory(ctx context.Context, categoryID int64) error {
	ok, err := s.categories.Exists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCategoryNotFound
	}
	return nil
}
