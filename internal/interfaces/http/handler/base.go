package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wims/backend/internal/domain/shared"
	"github.com/wims/backend/internal/infrastructure/logger"
	"github.com/wims/backend/internal/interfaces/http/dto"
	"github.com/wims/backend/internal/interfaces/http/middleware"
)

const internalErrorMessage = "An internal error occurred"

// BaseHandler writes the response envelope shared by every handler
type BaseHandler struct{}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta writes one page of a list together with its pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithCode writes an error envelope whose status follows from code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	resp := dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c))
	c.JSON(dto.GetHTTPStatus(code), resp)
}

func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeNotFound, message)
}

func (h *BaseHandler) ValidationError(c *gin.Context, fields []dto.FieldDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		fields,
	))
}

// BindJSON binds the request body into obj. On failure the 400 (or 413) is
// already written and false is returned.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters into obj, reporting failures like BindJSON
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	if fields := middleware.ValidationFields(err); fields != nil {
		h.ValidationError(c, fields)
		return
	}

	var maxBytesErr *http.MaxBytesError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxBytesErr):
		h.ErrorWithCode(c, dto.ErrCodePayloadTooLarge, "Request body too large")
	case errors.As(err, &typeErr):
		h.ValidationError(c, []dto.FieldDetail{{
			Field:   typeErr.Field,
			Message: "Must be of type " + typeErr.Type.String(),
			Code:    dto.ErrCodeValidationFormat,
		}})
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, "Malformed JSON body")
	default:
		h.ErrorWithCode(c, dto.ErrCodeBadRequest, err.Error())
	}
}

// ParseID parses a UUID path parameter, writing a 400 when it is malformed
func (h *BaseHandler) ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.ValidationError(c, []dto.FieldDetail{{
			Field:   param,
			Message: "Invalid UUID format",
			Code:    dto.ErrCodeValidationFormat,
		}})
		return uuid.Nil, false
	}
	return id, true
}

// HandleError translates any error returned by the application layer into the
// response envelope. It is the only place domain errors meet HTTP.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	requestID := middleware.GetRequestID(c)

	var validationErr *shared.ValidationError
	if errors.As(err, &validationErr) {
		fields := make([]dto.FieldDetail, len(validationErr.Fields))
		for i, f := range validationErr.Fields {
			fields[i] = dto.FieldDetail{Field: f.Field, Message: f.Message, Code: dto.ErrCodeValidation}
		}
		h.ValidationError(c, fields)
		return
	}

	var stockErr *shared.InsufficientStockError
	if errors.As(err, &stockErr) {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeInsufficientStock, shared.ErrInsufficientStock.Message, requestID)
		resp.Error.Details = map[string]any{
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		}
		if stockErr.PlacementID != uuid.Nil {
			resp.Error.Details["placement_id"] = stockErr.PlacementID
		}
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeInsufficientStock), resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		statusCode := dto.GetHTTPStatus(code)
		message := domainErr.Message
		if statusCode >= http.StatusInternalServerError {
			message = internalErrorMessage
		}
		resp := dto.NewErrorResponseWithRequestID(code, message, requestID)

		if shared.IsRetryable(err) {
			c.Header("Retry-After", strconv.Itoa(1))
			resp.Error.Details = map[string]any{"retryable": true}
		}
		if statusCode >= http.StatusInternalServerError {
			logger.GetGinLogger(c).Error("Request failed",
				zap.String("code", domainErr.Code),
				zap.Error(err),
			)
		}
		c.JSON(statusCode, resp)
		return
	}

	logger.GetGinLogger(c).Error("Unexpected error",
		zap.Error(err),
		zap.StackSkip("stacktrace", 1),
	)
	h.ErrorWithCode(c, dto.ErrCodeInternal, internalErrorMessage)
}

// paging normalizes list parameters the way the repositories do, so the
// meta block describes the page actually served
func paging(page, pageSize int) (int, int) {
	f := shared.Filter{Page: page, PageSize: pageSize}.Normalize()
	return f.Page, f.PageSize
}
