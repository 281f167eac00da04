package httpserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"feathermart/internal/domain"
	anonymoussvc "feathermart/internal/service/anonymous"
	customersvc "feathermart/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrAuthenticationRequired, http.StatusUnauthorized, "authentication_required"},
	{customersvc.ErrInvalidCredentials, http.StatusUnauthorized, "authentication_required"},
	{customersvc.ErrInvalidToken, http.StatusUnauthorized, "authentication_required"},
	{anonymoussvc.ErrInvalidToken, http.StatusUnauthorized, "authentication_required"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{domain.ErrMissingProductContext, http.StatusBadRequest, "missing_product_context"},
	{domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrOrderLineCreationFailed, http.StatusInternalServerError, "order_line_creation_failed"},
	{domain.ErrOrderCreationFailed, http.StatusInternalServerError, "order_creation_failed"},
	{domain.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
	{domain.ErrAlreadyExists, http.StatusConflict, "invalid_request"},
	{domain.ErrInvalidStatusTransition, http.StatusConflict, "invalid_request"},
	{domain.ErrInsufficientStock, http.StatusConflict, "invalid_request"},
	{domain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_request"},
	{domain.ErrInvalidShippingAddress, http.StatusBadRequest, "invalid_request"},
	{customersvc.ErrInvalidSignup, http.StatusBadRequest, "invalid_request"},
}

// writeError renders err as {"error","code"}. Unmapped errors become a 500
// and are logged when a logger is given.
func writeError(c *gin.Context, logger *log.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError && logger != nil {
				logger.Printf("http: %s %s error=%v", c.Request.Method, c.FullPath(), err)
			}
			c.JSON(m.status, errorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}
	if logger != nil {
		logger.Printf("http: %s %s unexpected error=%v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal_error"})
}

func badRequest(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf(format, args...), Code: "invalid_request"})
}
