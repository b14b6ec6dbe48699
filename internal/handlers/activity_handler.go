package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"depo-backend/internal/activity"
	"depo-backend/internal/cache"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/internal/timeutil"
	"depo-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// ActivityHandler backs the admin activity dashboard.
type ActivityHandler struct {
	Logs    *repositories.LoginLogRepository
	Tracker *activity.Tracker
}

func NewActivityHandler(logs *repositories.LoginLogRepository, tracker *activity.Tracker) *ActivityHandler {
	return &ActivityHandler{Logs: logs, Tracker: tracker}
}

// ListLoginLogs supports ?action=, ?username=, ?since= and ?limit=. since is
// RFC3339 or a plain date, read as local midnight.
func (h *ActivityHandler) ListLoginLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.LoginLogFilter{Action: q.Get("action"), Username: q.Get("username")}
	if s := q.Get("since"); s != "" {
		since, err := timeutil.ParseSince(s)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "since must be RFC3339 or YYYY-MM-DD")
			return
		}
		f.Since = since
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			utils.RespondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		f.Limit = n
	}

	logs, err := h.Logs.List(r.Context(), f)
	if err != nil {
		respondErr(w, err)
		return
	}
	if logs == nil {
		logs = []*models.LoginLog{}
	}
	utils.JSON(w, http.StatusOK, logs)
}

// UserHistory is the login history of one username, newest first (?limit=,
// default 50).
func (h *ActivityHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	logs, err := h.Logs.ListForUser(r.Context(), mux.Vars(r)["username"], limit)
	if err != nil {
		respondErr(w, err)
		return
	}
	if logs == nil {
		logs = []*models.LoginLog{}
	}
	utils.JSON(w, http.StatusOK, logs)
}

func (h *ActivityHandler) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Tracker.GetActiveSessions(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	if sessions == nil {
		sessions = []*models.ActiveSession{}
	}
	utils.JSON(w, http.StatusOK, sessions)
}

func (h *ActivityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cachedStats(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, stats)
}

// cachedStats serves the 24h counters from redis for cache.StatsTTL; the
// dashboard polls them from every open admin tab.
func (h *ActivityHandler) cachedStats(ctx context.Context) (*models.LoginStats, error) {
	if data, ok := cache.GetCached(ctx, cache.ActivityStatsKey); ok {
		var stats models.LoginStats
		if json.Unmarshal(data, &stats) == nil {
			return &stats, nil
		}
	}
	stats, err := h.Tracker.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(stats); err == nil {
		cache.SetCached(ctx, cache.ActivityStatsKey, data, cache.StatsTTL)
	}
	return stats, nil
}
