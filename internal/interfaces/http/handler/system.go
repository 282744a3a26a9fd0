package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wims/backend/internal/infrastructure/scheduler"
	"github.com/wims/backend/internal/interfaces/http/dto"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// ReconcileTrigger is the scheduler surface exposed over HTTP
type ReconcileTrigger interface {
	TriggerNow() (*scheduler.Job, error)
	LastJob() (scheduler.Job, bool)
}

// SystemHandler handles health checks, build info and manual reconciliation
type SystemHandler struct {
	BaseHandler
	startTime  time.Time
	version    string
	checks     map[string]ReadinessCheck
	reconciler ReconcileTrigger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(version string, reconciler ReconcileTrigger) *SystemHandler {
	return &SystemHandler{
		startTime:  time.Now(),
		version:    version,
		checks:     make(map[string]ReadinessCheck),
		reconciler: reconciler,
	}
}

// AddReadinessCheck registers a named dependency checked by Ready
func (h *SystemHandler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// Health godoc
// @ID           health
// @Summary      Liveness check
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthData
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthData{Status: "ok"})
}

// Ready godoc
// @ID           ready
// @Summary      Readiness check
// @Description  Runs every registered dependency check with a short timeout
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthData
// @Failure      503 {object} HealthData
// @Router       /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := HealthData{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			result.Status = "unavailable"
			result.Checks[name] = err.Error()
			continue
		}
		result.Checks[name] = "ok"
	}
	c.JSON(status, result)
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string `json:"name" example:"WIMS Backend API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "WIMS Backend API",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// TriggerReconcile godoc
// @ID           triggerReconcile
// @Summary      Run the reconciliation job now
// @Description  Queues a manual run. Refused while another run is queued or running.
// @Tags         system
// @Produce      json
// @Success      202 {object} APIResponse[ReconcileJobData]
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /system/reconcile [post]
func (h *SystemHandler) TriggerReconcile(c *gin.Context) {
	if h.reconciler == nil {
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, "Reconciliation is disabled")
		return
	}

	job, err := h.reconciler.TriggerNow()
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		h.ErrorWithCode(c, dto.ErrCodeConflict, "A reconciliation run is already in progress")
		return
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, "Reconciliation is disabled")
		return
	case err != nil:
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(toReconcileJobData(*job)))
}

// GetReconcileStatus godoc
// @ID           getReconcileStatus
// @Summary      Get the last reconciliation job
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[ReconcileJobData]
// @Failure      404 {object} ErrorResponse
// @Router       /system/reconcile [get]
func (h *SystemHandler) GetReconcileStatus(c *gin.Context) {
	if h.reconciler == nil {
		h.NotFound(c, "No reconciliation run yet")
		return
	}
	job, ok := h.reconciler.LastJob()
	if !ok {
		h.NotFound(c, "No reconciliation run yet")
		return
	}
	h.Success(c, toReconcileJobData(job))
}

func toReconcileJobData(job scheduler.Job) ReconcileJobData {
	data := ReconcileJobData{
		ID:         job.ID.String(),
		Trigger:    string(job.Trigger),
		Status:     string(job.Status),
		Error:      job.Error,
		QueuedAt:   job.QueuedAt.Format(time.RFC3339),
		RetryCount: job.RetryCount,
	}
	if job.StartedAt != nil {
		s := job.StartedAt.Format(time.RFC3339)
		data.StartedAt = &s
	}
	if job.CompletedAt != nil {
		s := job.CompletedAt.Format(time.RFC3339)
		data.CompletedAt = &s
	}
	return data
}
