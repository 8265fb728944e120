// Package handler provides HTTP handlers for the SegmentScout API.
package handler

import (
	"net/http"
	"time"

	"github.com/segmentscout/segmentscout/internal/api/models"
	"github.com/segmentscout/segmentscout/internal/api/response"
	"github.com/segmentscout/segmentscout/internal/provider/resilience"
	"github.com/segmentscout/segmentscout/internal/segment"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version        string
	buildTime      string
	registry       *resilience.Registry
	segmentService *segment.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, segmentService *segment.Service) *OpsHandler {
	return &OpsHandler{
		version:        version,
		buildTime:      buildTime,
		registry:       registry,
		segmentService: segmentService,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service is
// ready unless every provider circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.registry != nil {
		all := h.registry.GetAllHealth()
		open := 0
		for _, ph := range all {
			if ph.IsUnhealthy() {
				open++
			}
		}
		if len(all) > 0 && open == len(all) {
			status = models.HealthStatusFail
		} else if open > 0 {
			status = models.HealthStatusDegraded
		}
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - provider and cache status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider:     ph.Name,
				Status:       models.HealthStatusOK,
				CircuitState: ph.CircuitState.String(),
			}
			switch {
			case ph.IsUnhealthy():
				ps.Status = models.HealthStatusFail
				status.Status = models.HealthStatusDegraded
			case ph.IsDegraded():
				ps.Status = models.HealthStatusDegraded
				status.Status = models.HealthStatusDegraded
			}
			if ph.LastSuccessAt != nil {
				ts := models.Timestamp(*ph.LastSuccessAt)
				ps.LastSuccessAt = &ts
			}
			if ph.LastFailureAt != nil {
				ts := models.Timestamp(*ph.LastFailureAt)
				ps.LastFailureAt = &ts
			}
			if ph.LastError != "" {
				msg := ph.LastError
				ps.Message = &msg
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.segmentService != nil {
		stats := h.segmentService.CacheStats()
		status.Cache = &models.CacheStatus{
			TotalEntries: stats.TotalEntries,
			FreshEntries: stats.FreshEntries,
			StaleEntries: stats.StaleEntries,
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}
