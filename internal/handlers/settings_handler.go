package handlers

import (
	"context"
	"net/http"

	"depo-backend/internal/cache"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/pkg/utils"
)

// SettingsHandler exposes the singleton site settings. Reads of the
// announcement and popup are public; every write is admin only.
type SettingsHandler struct {
	Repo *repositories.SettingsRepository
}

func NewSettingsHandler(repo *repositories.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{Repo: repo}
}

func (h *SettingsHandler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	respondSetting(w, r, h.Repo.Announcement)
}

func (h *SettingsHandler) GetPopup(w http.ResponseWriter, r *http.Request) {
	respondSetting(w, r, h.Repo.Popup)
}

func (h *SettingsHandler) GetBanSettings(w http.ResponseWriter, r *http.Request) {
	respondSetting(w, r, h.Repo.BanSettings)
}

func (h *SettingsHandler) GetSiteLockdown(w http.ResponseWriter, r *http.Request) {
	respondSetting(w, r, h.Repo.SiteLockdown)
}

func (h *SettingsHandler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	updateSetting(w, r, h.Repo.UpdateAnnouncement)
}

func (h *SettingsHandler) UpdatePopup(w http.ResponseWriter, r *http.Request) {
	updateSetting(w, r, h.Repo.UpdatePopup)
}

func (h *SettingsHandler) UpdateBanSettings(w http.ResponseWriter, r *http.Request) {
	updateSetting(w, r, h.Repo.UpdateBanSettings)
}

func (h *SettingsHandler) UpdateSiteLockdown(w http.ResponseWriter, r *http.Request) {
	updateSetting(w, r, h.Repo.UpdateSiteLockdown)
}

func respondSetting[T any](w http.ResponseWriter, r *http.Request, get func(context.Context) (*T, error)) {
	v, err := get(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}

// updateSetting decodes and validates the row, saves it as the caller and
// drops the cached copies the site guard reads.
func updateSetting[T any](w http.ResponseWriter, r *http.Request, save func(context.Context, models.Actor, *T) error) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	v := new(T)
	if err := utils.DecodeJSON(r, v); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := save(r.Context(), actor, v); err != nil {
		respondErr(w, err)
		return
	}
	cache.InvalidateSettingCaches(r.Context())
	utils.JSON(w, http.StatusOK, v)
}
