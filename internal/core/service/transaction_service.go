package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/logger"
	"github.com/rl1809/inventory-ledger/internal/port"
)

var tracer = otel.Tracer("github.com/rl1809/inventory-ledger/internal/core/service")

// WorkflowState tracks how far a create or delete got before it ended.
type WorkflowState string

const (
	StatePending    WorkflowState = "pending"
	StateAdjusting  WorkflowState = "adjusting"
	StateRecording  WorkflowState = "recording"
	StateCommitted  WorkflowState = "committed"
	StateRolledBack WorkflowState = "rolled_back"
)

const (
	opCreate = "create"
	opDelete = "delete"
)

type workflowRun struct {
	op    string
	state WorkflowState
	span  trace.Span
}

func (r *workflowRun) to(state WorkflowState) {
	r.state = state
	r.span.AddEvent(string(state))
}

// finish moves the run to its terminal state and returns the state the
// failure happened in, if any.
func (r *workflowRun) finish(err error) WorkflowState {
	failedIn := r.state
	if err == nil {
		r.state = StateCommitted
		return ""
	}
	if failedIn == StateAdjusting || failedIn == StateRecording {
		r.state = StateRolledBack
	}
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, err.Error())
	return failedIn
}

type TransactionService struct {
	stock   *StockService
	ledger  port.TransactionRepository
	items   port.ItemRepository
	users   port.UserRepository
	tx      port.Transactor
	locker  port.ItemLocker
	idem    port.IdempotencyStore
	cache   cacheStore
	logger  *logrus.Logger
	metrics Metrics
	now     func() time.Time
}

type TransactionServiceDeps struct {
	Stock       *StockService
	Ledger      port.TransactionRepository
	Items       port.ItemRepository
	Users       port.UserRepository
	Transactor  port.Transactor
	Locker      port.ItemLocker
	Idempotency port.IdempotencyStore
	Cache       port.CacheRepository
	CacheTTL    time.Duration
	Logger      *logrus.Logger
	Metrics     Metrics
}

func NewTransactionService(deps TransactionServiceDeps) *TransactionService {
	return &TransactionService{
		stock:   deps.Stock,
		ledger:  deps.Ledger,
		items:   deps.Items,
		users:   deps.Users,
		tx:      deps.Transactor,
		locker:  deps.Locker,
		idem:    deps.Idempotency,
		cache:   newCacheStore(deps.Cache, deps.CacheTTL, deps.Logger),
		logger:  deps.Logger,
		metrics: orNop(deps.Metrics),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create applies the stock movement and records it in one atomic unit.
// Errors from the stock or ledger step are returned unchanged.
func (s *TransactionService) Create(ctx context.Context, req domain.TransactionRequest) (domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Create", trace.WithAttributes(
		attribute.Int64("item.id", req.ItemID),
		attribute.String("transaction.type", string(req.Type)),
		attribute.Int("transaction.quantity", req.Quantity),
	))
	defer span.End()
	run := &workflowRun{op: opCreate, state: StatePending, span: span}

	release, err := s.claim(ctx, req)
	if err != nil {
		return domain.Transaction{}, err
	}

	var created domain.Transaction
	err = s.withItemLock(ctx, req.ItemID, func(ctx context.Context) error {
		return RunInUnit(ctx, s.tx, func(ctx context.Context, unit port.Unit) error {
			run.to(StateAdjusting)
			ok, err := s.stock.Apply(ctx, req.ItemID, req.Type, req.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: stock adjustment wrote nothing", domain.ErrInternal)
			}

			run.to(StateRecording)
			created, err = unit.Transactions().Create(ctx, req.Entry(s.now()))
			return err
		})
	})

	failedIn := run.finish(err)
	s.metrics.WorkflowFinished(opCreate, string(run.state))
	if err != nil {
		release()
		s.logFailure(run, failedIn, req.ItemID, err)
		return domain.Transaction{}, err
	}

	logger.Channel(s.logger, logger.ChannelModel).WithFields(logrus.Fields{
		"id":       created.ID,
		"item_id":  created.ItemID,
		"user_id":  created.UserID,
		"type":     created.Type,
		"quantity": created.Quantity,
	}).Info("Create transaction.")
	return created, nil
}

// Delete removes a ledger entry together with its compensating movement.
// Undoing an "in" can fail with ErrInsufficientStock once later movements
// consumed the stock; the entry then stays.
func (s *TransactionService) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Delete", trace.WithAttributes(
		attribute.Int64("transaction.id", id),
	))
	defer span.End()
	run := &workflowRun{op: opDelete, state: StatePending, span: span}

	entry, err := s.ledger.Find(ctx, id)
	if err != nil {
		s.metrics.WorkflowFinished(opDelete, string(run.state))
		return false, err
	}

	var deleted bool
	err = s.withItemLock(ctx, entry.ItemID, func(ctx context.Context) error {
		return RunInUnit(ctx, s.tx, func(ctx context.Context, unit port.Unit) error {
			run.to(StateAdjusting)
			ok, err := s.stock.Apply(ctx, entry.ItemID, entry.Type.Inverse(), entry.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: compensating adjustment wrote nothing", domain.ErrInternal)
			}

			run.to(StateRecording)
			deleted, err = unit.Transactions().Delete(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: ledger delete wrote nothing", domain.ErrInternal)
			}

			s.cache.invalidate(ctx, append(transactionKeys(id), ItemKey(entry.ItemID))...)
			return nil
		})
	})

	failedIn := run.finish(err)
	s.metrics.WorkflowFinished(opDelete, string(run.state))
	if err != nil {
		s.logFailure(run, failedIn, entry.ItemID, err)
		return false, err
	}

	logger.Channel(s.logger, logger.ChannelModel).WithField("id", id).Info("Delete transaction.")
	return true, nil
}

// Find returns one entry. Staff only see entries they authored.
func (s *TransactionService) Find(ctx context.Context, viewer domain.User, id int64) (domain.Transaction, error) {
	entry, err := Remember(ctx, s.cache.backend, s.logger, TransactionKey(id), s.cache.ttl, func(ctx context.Context) (domain.Transaction, error) {
		return s.ledger.Find(ctx, id)
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	if !visibleTo(viewer, entry) {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}
	return entry, nil
}

// FindDetail is the v2 view: admins get the author and item embedded.
func (s *TransactionService) FindDetail(ctx context.Context, viewer domain.User, id int64) (domain.TransactionDetail, error) {
	key := TransactionDetailKey(viewer.Role, id)
	detail, err := Remember(ctx, s.cache.backend, s.logger, key, s.cache.ttl, func(ctx context.Context) (domain.TransactionDetail, error) {
		entry, err := s.ledger.Find(ctx, id)
		if err != nil {
			return domain.TransactionDetail{}, err
		}
		detail := domain.TransactionDetail{Transaction: entry}
		if viewer.Role != domain.RoleAdmin {
			return detail, nil
		}

		author, err := s.users.Find(ctx, entry.UserID)
		if err != nil {
			return domain.TransactionDetail{}, err
		}
		item, err := s.items.Find(ctx, entry.ItemID)
		if err != nil {
			return domain.TransactionDetail{}, err
		}
		detail.User = &domain.UserSummary{ID: author.ID, Name: author.Name}
		detail.Item = &domain.ItemSummary{ID: item.ID, Name: item.Name}
		return detail, nil
	})
	if err != nil {
		return domain.TransactionDetail{}, err
	}
	if !visibleTo(viewer, detail.Transaction) {
		return domain.TransactionDetail{}, domain.ErrTransactionNotFound
	}
	return detail, nil
}

func (s *TransactionService) Paginate(ctx context.Context, page, perPage int) (domain.Page[domain.Transaction], error) {
	page, perPage = domain.NormalizePage(page, perPage)
	return s.ledger.Paginate(ctx, page, perPage)
}

func (s *TransactionService) ListByItem(ctx context.Context, itemID int64) (domain.Item, []domain.Transaction, error) {
	item, err := s.items.Find(ctx, itemID)
	if err != nil {
		return domain.Item{}, nil, err
	}
	entries, err := s.ledger.ListByItem(ctx, itemID)
	if err != nil {
		return domain.Item{}, nil, err
	}
	return item, entries, nil
}

func visibleTo(viewer domain.User, entry domain.Transaction) bool {
	return viewer.Role == domain.RoleAdmin || entry.UserID == viewer.ID
}

func (s *TransactionService) withItemLock(ctx context.Context, itemID int64, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	unlock, err := s.locker.Lock(ctx, itemID)
	if err != nil {
		return fmt.Errorf("lock item %d: %w", itemID, err)
	}
	defer unlock()
	return fn(ctx)
}

// claim reserves the idempotency key of req. The returned release undoes the
// claim and is safe to call when nothing was claimed.
func (s *TransactionService) claim(ctx context.Context, req domain.TransactionRequest) (func(), error) {
	if s.idem == nil || req.IdempotencyKey == "" {
		return func() {}, nil
	}

	key := "idempotency:transaction:" + strconv.FormatInt(req.UserID, 10) + ":" + req.IdempotencyKey
	ok, err := s.idem.Claim(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, domain.ErrDuplicateRequest
	}

	return func() {
		if err := s.idem.Release(context.WithoutCancel(ctx), key); err != nil {
			logger.LogError(s.logger, "transaction", "claim", "idempotency release failed", key, err)
		}
	}, nil
}

func (s *TransactionService) logFailure(run *workflowRun, failedIn WorkflowState, itemID int64, err error) {
	entry := s.logger.WithFields(logrus.Fields{
		"operation": run.op,
		"state":     run.state,
		"failed_in": failedIn,
		"item_id":   itemID,
	})
	if isBusinessError(err) {
		entry.Info(err.Error())
		return
	}
	entry.Error(err.Error())
}

func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidArgument)
}
