package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrDuplicateCode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = domain.ErrInternal.Error()
	}
	c.JSON(status, gin.H{"message": message})
}

// writeBindError answers 422 with per-field messages for validation
// failures and 400 for bodies that do not decode.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := toSnake(fe.Field())
		fields[name] = append(fields[name], fieldMessage(name, fe))
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  fields,
	})
}

func fieldMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field %s is required.", name)
	case "min", "gte":
		return fmt.Sprintf("Field %s is not less than %s.", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("Field %s must be one of the allowed types.", name)
	case "max":
		return fmt.Sprintf("Field %s may not be greater than %s.", name, fe.Param())
	}
	return fmt.Sprintf("Field %s is invalid.", name)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && (s[i-1] < 'A' || s[i-1] > 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
