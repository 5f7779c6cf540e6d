package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserName  = "X-User-Name"
	HeaderIdemKey   = "Idempotency-Key"
)

type viewerKey struct{}

// RequestID tags every request with an id, reusing the caller's when valid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func AccessLog(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"request_id": c.GetString(HeaderRequestID),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Debug("http request")
	}
}

// Gateway reads the caller identity that the API gateway asserted after
// validating the bearer token.
func Gateway() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}
		role, err := domain.ParseRole(strings.ToLower(c.GetHeader(HeaderUserRole)))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}

		viewer := domain.User{ID: id, Name: c.GetHeader(HeaderUserName), Role: role}
		ctx := context.WithValue(c.Request.Context(), viewerKey{}, viewer)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func Viewer(ctx context.Context) (domain.User, bool) {
	v, ok := ctx.Value(viewerKey{}).(domain.User)
	return v, ok
}

func AcceptJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept"), "application/json") {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Accept header must be application/json."})
			return
		}
		c.Next()
	}
}

// Can aborts with 403 unless the caller's role grants ability.
func Can(ability domain.Ability) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := Viewer(c.Request.Context())
		if !ok || !viewer.Role.Can(ability) {
			writeError(c, domain.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
