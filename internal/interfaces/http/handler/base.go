package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// HandleError maps service errors to HTTP responses. Import errors carry
// their row list, store errors keep the store's message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var importErr *csvimport.ImportError
	if errors.As(err, &importErr) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrCodeImport, importErr.Error(), requestID, dto.NewImportErrorDetails(importErr)))
		return
	}

	var partial *finance.PartialCommitError
	if errors.As(err, &partial) {
		logger.L(c.Request.Context()).Error("Commit stopped after partial write",
			zap.Int("committed", partial.Committed),
			zap.Int("total", partial.Total),
			zap.Error(partial.Err),
		)
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithDetails(
			dto.ErrCodePartialCommit, partial.Error(), requestID,
			dto.PartialCommitDetails{Committed: partial.Committed, Total: partial.Total}))
		return
	}

	var storeErr *shared.StoreError
	if errors.As(err, &storeErr) {
		logger.L(c.Request.Context()).Error("Ledger store failure", zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeStore, storeErr.Error())
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeTimeout, "request timed out")
		return
	}

	if errors.Is(err, csvimport.ErrEmptyFile) || errors.Is(err, csvimport.ErrInvalidEncoding) ||
		errors.Is(err, csvimport.ErrMissingHeader) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeImport, err.Error())
		return
	}
	if errors.Is(err, csvimport.ErrFileTooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, err.Error())
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled request error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON binds the body and writes the 400 response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters and writes the 400 response on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.ValidationError(c, middleware.ValidationDetails(err))
		return
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "request body too large")
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "invalid request body: "+err.Error())
}

// variantParam resolves the :variant path segment
func (h *BaseHandler) variantParam(c *gin.Context) (finance.Variant, bool) {
	v, err := finance.ParseVariant(c.Param("variant"))
	if err != nil {
		h.HandleError(c, err)
		return "", false
	}
	return v, true
}

// uuidParam parses a UUID path parameter
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// parseDateParam parses an optional date; empty input yields the zero time
func (h *BaseHandler) parseDateParam(c *gin.Context, field, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, true
	}
	t, err := csvimport.ParseDate(value)
	if err != nil {
		h.ValidationError(c, []dto.ValidationDetail{{Field: field, Message: "must be a date (YYYY-MM-DD or DD/MM/YYYY)"}})
		return time.Time{}, false
	}
	return t, true
}
