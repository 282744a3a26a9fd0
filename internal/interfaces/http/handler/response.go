package handler

import "github.com/wims/backend/internal/interfaces/http/dto"

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ReconcileJobData describes a reconciliation job
// @Description Reconciliation job state
type ReconcileJobData struct {
	ID          string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Trigger     string  `json:"trigger" example:"manual"`
	Status      string  `json:"status" example:"SUCCESS"`
	Error       string  `json:"error,omitempty"`
	QueuedAt    string  `json:"queued_at" example:"2026-01-23T12:00:00Z"`
	StartedAt   *string `json:"started_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
	RetryCount  int     `json:"retry_count" example:"0"`
}

// HealthData is the body of the liveness and readiness checks
// @Description Health status
type HealthData struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}
