package dto

import (
	"net/http"

	"github.com/wims/backend/internal/domain/shared"
)

// API error codes returned in Response.Error.Code
const (
	ErrCodeUnknown            = "ERR_UNKNOWN"
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodeInvariantViolation = "ERR_INVARIANT_VIOLATION"

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
	ErrCodeValidationLength   = "ERR_VALIDATION_LENGTH"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// errorCode ties an API code to its HTTP status and, when the code is
// raised from the domain layer, to the shared.DomainError code behind it.
type errorCode struct {
	api    string
	status int
	domain string
}

var errorCodes = []errorCode{
	{ErrCodeUnknown, http.StatusInternalServerError, ""},
	{ErrCodeInternal, http.StatusInternalServerError, shared.CodeInternal},
	{ErrCodeInvariantViolation, http.StatusInternalServerError, shared.CodeInvariantViolation},

	{ErrCodeValidation, http.StatusBadRequest, shared.CodeValidation},
	{ErrCodeValidationRequired, http.StatusBadRequest, ""},
	{ErrCodeValidationFormat, http.StatusBadRequest, ""},
	{ErrCodeValidationRange, http.StatusBadRequest, ""},
	{ErrCodeValidationLength, http.StatusBadRequest, ""},

	{ErrCodeNotFound, http.StatusNotFound, shared.CodeNotFound},
	{ErrCodeAlreadyExists, http.StatusConflict, shared.CodeAlreadyExists},
	{ErrCodeConflict, http.StatusConflict, ""},
	{ErrCodeConcurrencyConflict, http.StatusConflict, shared.CodeConcurrencyConflict},

	{ErrCodeInvalidState, http.StatusUnprocessableEntity, shared.CodeInvalidState},
	{ErrCodeInsufficientStock, http.StatusBadRequest, shared.CodeInsufficientStock},

	{ErrCodeBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
	{ErrCodeInvalidInput, http.StatusBadRequest, shared.CodeInvalidInput},
	{ErrCodeInvalidJSON, http.StatusBadRequest, ""},
	{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge, ""},

	{ErrCodeRateLimited, http.StatusTooManyRequests, ""},
	{ErrCodeUnavailable, http.StatusServiceUnavailable, ""},
}

var (
	statusByCode = make(map[string]int, len(errorCodes))
	apiByDomain  = make(map[string]string, len(errorCodes))
)

func init() {
	for _, c := range errorCodes {
		statusByCode[c.api] = c.status
		if c.domain != "" {
			apiByDomain[c.domain] = c.api
		}
	}
}

// GetHTTPStatus returns the HTTP status for an API error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode turns a domain error code into its API code. API codes
// and unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if api, ok := apiByDomain[code]; ok {
		return api
	}
	return code
}
