package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/inventory-ledger/internal/adapter/export"
	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/core/service"
	"github.com/rl1809/inventory-ledger/internal/logger"
)

// Pinger is a backend the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPHandler struct {
	items        *service.ItemService
	transactions *service.TransactionService
	backends     map[string]Pinger
	metrics      http.Handler
	logger       *logrus.Logger
}

type HTTPHandlerDeps struct {
	Items        *service.ItemService
	Transactions *service.TransactionService
	Backends     map[string]Pinger
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *logrus.Logger
}

type createItemBody struct {
	CategoryID int64  `json:"category_id" binding:"required,min=1"`
	Name       string `json:"name" binding:"required,max=255"`
	Code       string `json:"code" binding:"required,max=255"`
	Stock      *int   `json:"stock" binding:"required,min=0"`
}

type updateItemBody struct {
	Name string `json:"name" binding:"required,max=255"`
}

type createTransactionBody struct {
	ItemID      int64   `json:"item_id" binding:"required,min=1"`
	Type        string  `json:"type" binding:"required,oneof=in out"`
	Quantity    int     `json:"quantity" binding:"required,min=1"`
	Description *string `json:"description"`
}

type pageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

func NewHTTPHandler(deps HTTPHandlerDeps) *HTTPHandler {
	return &HTTPHandler{
		items:        deps.Items,
		transactions: deps.Transactions,
		backends:     deps.Backends,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
	}
}

// Router builds the gin engine with every route mounted.
func (h *HTTPHandler) Router(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(h.logger))

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AddAllowHeaders(HeaderUserID, HeaderUserRole, HeaderUserName, HeaderIdemKey, HeaderRequestID)
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.HealthCheck)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/items/:id/transactions/export", Gateway(), Can(domain.AbilityViewAnyTransaction), h.ExportItemLedger)

	api := v1.Group("", AcceptJSON(), Gateway())
	api.GET("/items", Can(domain.AbilityViewAnyItem), h.ListItems)
	api.POST("/items", Can(domain.AbilityCreateItem), h.CreateItem)
	api.GET("/items/:id", Can(domain.AbilityViewItem), h.ShowItem)
	api.PUT("/items/:id", Can(domain.AbilityUpdateItem), h.UpdateItem)
	api.DELETE("/items/:id", Can(domain.AbilityDeleteItem), h.DeleteItem)

	api.GET("/transactions", Can(domain.AbilityViewAnyTransaction), h.ListTransactions)
	api.POST("/transactions", Can(domain.AbilityCreateTransaction), h.CreateTransaction)
	api.GET("/transactions/:id", Can(domain.AbilityViewTransaction), h.ShowTransaction)
	api.DELETE("/transactions/:id", Can(domain.AbilityDeleteTransaction), h.DeleteTransaction)

	v2 := r.Group("/api/v2", AcceptJSON(), Gateway())
	v2.GET("/transactions/:id", Can(domain.AbilityViewTransaction), h.ShowTransactionDetail)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route Not Exists."})
	})
	return r
}

func (h *HTTPHandler) ListItems(c *gin.Context) {
	raw := c.Query("category")
	if raw == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Missing required parameter: ?category"})
		return
	}
	categoryID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(c, domain.ErrCategoryNotFound)
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	page, err := h.items.PaginateItems(c.Request.Context(), categoryID, q.Page, q.PerPage)
	if err != nil {
		h.fail(c, "ListItems", raw, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *HTTPHandler) CreateItem(c *gin.Context) {
	var body createItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}
	req, err := domain.NewCreateItemRequest(body.CategoryID, strings.TrimSpace(body.Name), strings.TrimSpace(body.Code), *body.Stock)
	if err != nil {
		writeError(c, err)
		return
	}

	item, err := h.items.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "CreateItem", body, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (h *HTTPHandler) ShowItem(c *gin.Context) {
	id, ok := pathID(c, domain.ErrItemNotFound)
	if !ok {
		return
	}
	item, err := h.items.FindItem(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "ShowItem", id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, domain.ErrItemNotFound)
	if !ok {
		return
	}
	var body updateItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}

	item, err := h.items.UpdateItem(c.Request.Context(), id, domain.UpdateItemRequest{Name: strings.TrimSpace(body.Name)})
	if err != nil {
		h.fail(c, "UpdateItem", id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (h *HTTPHandler) DeleteItem(c *gin.Context) {
	id, ok := pathID(c, domain.ErrItemNotFound)
	if !ok {
		return
	}
	deleted, err := h.items.DeleteItem(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "DeleteItem", id, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something wrong."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item has been successfully deleted."})
}

func (h *HTTPHandler) ExportItemLedger(c *gin.Context) {
	id, ok := pathID(c, domain.ErrItemNotFound)
	if !ok {
		return
	}
	item, entries, err := h.transactions.ListByItem(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "ExportItemLedger", id, err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(item)+`"`)
	c.Status(http.StatusOK)
	if err := export.LedgerWorkbook(c.Writer, item, entries); err != nil {
		logger.LogError(h.logger, "handler", "ExportItemLedger", "write workbook failed", id, err)
	}
}

func (h *HTTPHandler) ListTransactions(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	page, err := h.transactions.Paginate(c.Request.Context(), q.Page, q.PerPage)
	if err != nil {
		h.fail(c, "ListTransactions", q, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *HTTPHandler) CreateTransaction(c *gin.Context) {
	viewer, _ := Viewer(c.Request.Context())

	var body createTransactionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBindError(c, err)
		return
	}
	req, err := domain.NewTransactionRequest(body.ItemID, viewer.ID, body.Type, body.Quantity, body.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(HeaderIdemKey))

	entry, err := h.transactions.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "CreateTransaction", body, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (h *HTTPHandler) ShowTransaction(c *gin.Context) {
	viewer, _ := Viewer(c.Request.Context())
	id, ok := pathID(c, domain.ErrTransactionNotFound)
	if !ok {
		return
	}
	entry, err := h.transactions.Find(c.Request.Context(), viewer, id)
	if err != nil {
		h.fail(c, "ShowTransaction", id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entry})
}

func (h *HTTPHandler) ShowTransactionDetail(c *gin.Context) {
	viewer, _ := Viewer(c.Request.Context())
	id, ok := pathID(c, domain.ErrTransactionNotFound)
	if !ok {
		return
	}
	detail, err := h.transactions.FindDetail(c.Request.Context(), viewer, id)
	if err != nil {
		h.fail(c, "ShowTransactionDetail", id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

func (h *HTTPHandler) DeleteTransaction(c *gin.Context) {
	id, ok := pathID(c, domain.ErrTransactionNotFound)
	if !ok {
		return
	}
	deleted, err := h.transactions.Delete(c.Request.Context(), id)
	if err != nil && statusOf(err) != http.StatusInternalServerError {
		writeError(c, err)
		return
	}
	if err != nil || !deleted {
		if err != nil {
			logger.LogError(h.logger, "handler", "DeleteTransaction", c.GetString(HeaderRequestID), id, err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something Wrong."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction has been successfully deleted."})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.backends))
	for name, b := range h.backends {
		if err := b.Ping(c.Request.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

func (h *HTTPHandler) fail(c *gin.Context, funcName string, data any, err error) {
	if statusOf(err) == http.StatusInternalServerError {
		logger.LogError(h.logger, "handler", funcName, c.GetString(HeaderRequestID), data, err)
	}
	writeError(c, err)
}

// pathID parses :id. Ids that cannot exist answer with notFound.
func pathID(c *gin.Context, notFound error) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, notFound)
		return 0, false
	}
	return id, true
}
