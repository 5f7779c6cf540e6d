// Package bootstrap wires storage, cache and services from a Config.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/inventory-ledger/internal/adapter/handler"
	"github.com/rl1809/inventory-ledger/internal/adapter/storage"
	"github.com/rl1809/inventory-ledger/internal/adapter/storage/memory"
	"github.com/rl1809/inventory-ledger/internal/config"
	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/core/service"
	"github.com/rl1809/inventory-ledger/internal/metrics"
	"github.com/rl1809/inventory-ledger/internal/port"
)

type App struct {
	Items        *service.ItemService
	Transactions *service.TransactionService
	Stock        *service.StockService
	Backends     map[string]handler.Pinger

	// Memory is set when the memory driver is in use.
	Memory *memory.Store

	closers []func() error
}

type stores struct {
	items        port.ItemRepository
	transactions port.TransactionRepository
	categories   port.CategoryRepository
	users        port.UserRepository
	transactor   port.Transactor
}

// New builds the application. reg may be nil to skip metrics.
func New(ctx context.Context, cfg config.Config, log *logrus.Logger, reg prometheus.Registerer) (*App, error) {
	app := &App{Backends: map[string]handler.Pinger{}}

	var st stores
	switch cfg.Storage.Driver {
	case config.DriverMySQL:
		db, err := openMySQL(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db.Close)

		adapter := storage.NewMySQLAdapter(db)
		app.Backends["mysql"] = adapter
		st = stores{adapter.Items(), adapter.Transactions(), adapter.Categories(), adapter.Users(), adapter}
	default:
		mem := memory.NewStore()
		seed(mem, log)
		app.Memory = mem
		st = stores{mem.Items(), mem.Transactions(), mem.Categories(), mem.Users(), mem}
	}

	var (
		cache  port.CacheRepository
		idem   port.IdempotencyStore
		locker port.ItemLocker
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.WithField("addr", cfg.Redis.Addr).Info("connected to redis")
		app.closers = append(app.closers, rdb.Close)

		adapter := storage.NewRedisAdapter(rdb)
		app.Backends["redis"] = adapter
		cache, idem = adapter, adapter
		locker = storage.NewRedisLocker(rdb, cfg.Lock.TTL, cfg.Lock.Backoff, cfg.Lock.Retries, log)
	} else {
		mc := memory.NewCache()
		cache, idem = mc, mc
		locker = memory.NewKeyedLocker()
	}

	var m service.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	app.Stock = service.NewStockService(st.items, st.transactor, cache, cfg.Cache.TTL, log, m)
	app.Transactions = service.NewTransactionService(service.TransactionServiceDeps{
		Stock:       app.Stock,
		Ledger:      st.transactions,
		Items:       st.items,
		Users:       st.users,
		Transactor:  st.transactor,
		Locker:      locker,
		Idempotency: idem,
		Cache:       cache,
		CacheTTL:    cfg.Cache.TTL,
		Logger:      log,
		Metrics:     m,
	})
	app.Items = service.NewItemService(st.items, st.categories, st.transactions, cache, cfg.Cache.TTL, log)
	return app, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openMySQL(ctx context.Context, cfg config.Config, log *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	log.Info("connected to mysql")

	if cfg.MySQL.Migrate {
		if err := storage.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("migrations applied")
	}
	return db, nil
}

// seed gives the memory driver a category and one user per role so the API
// is usable straight away.
func seed(mem *memory.Store, log *logrus.Logger) {
	category := mem.AddCategory("General")
	admin := mem.AddUser("Admin", domain.RoleAdmin)
	staff := mem.AddUser("Staff", domain.RoleStaff)
	log.WithFields(logrus.Fields{
		"category_id": category,
		"admin_id":    admin.ID,
		"staff_id":    staff.ID,
	}).Info("seeded memory store")
}
