package handlers

import (
	"net/http"

	"depo-backend/internal/health"
	"depo-backend/pkg/utils"
)

// HealthHandler serves the probe endpoints. Liveness never touches a
// dependency; readiness fails only on required components.
type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic(r.Context())
	utils.JSON(w, statusCode(status.Status), status)
}

// Detailed adds host CPU, memory and disk usage for the admin dashboard.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	status := h.checker.Detailed(r.Context())
	utils.JSON(w, statusCode(status.Status), status)
}

func statusCode(status string) int {
	if status == health.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
