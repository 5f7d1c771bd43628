package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasapos/backend/internal/domain/shared"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"github.com/kasapos/backend/internal/infrastructure/logger"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
	"github.com/kasapos/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// importFileErrors are file-level import failures reported as client errors
var importFileErrors = []error{
	csvimport.ErrEmptyFile,
	csvimport.ErrInvalidEncoding,
	csvimport.ErrMissingHeader,
	csvimport.ErrMalformedRow,
	csvimport.ErrNoDataRows,
	csvimport.ErrFileTooLarge,
	csvimport.ErrTooManyRows,
	csvimport.ErrInvalidWorkbook,
	csvimport.ErrUnsupportedFileType,
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithTotal sends a full list with its count
func (h *BaseHandler) SuccessWithTotal(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
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

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindingError sends the 400 response for a request that failed to bind
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	middleware.HandleValidationError(c, err)
}

// HandleError converts domain and import file errors to HTTP responses.
// Anything else is logged and reported as a 500 without its message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, code, message := h.describeError(c, err)
	h.Error(c, status, code, message)
}

// describeError returns the status, API code and client message for err
func (h *BaseHandler) describeError(c *gin.Context, err error) (int, string, string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		return dto.GetHTTPStatus(code), code, domainErr.Message
	}

	for _, target := range importFileErrors {
		if errors.Is(err, target) {
			code := csvimport.CodeFor(err)
			return dto.GetHTTPStatus(code), code, err.Error()
		}
	}

	logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	_ = c.Error(err)
	return http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
