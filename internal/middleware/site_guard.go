package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"depo-backend/internal/cache"
	"depo-backend/internal/logger"
	"depo-backend/internal/repositories"
	"depo-backend/pkg/utils"
)

// SiteGuard enforces the site lockdown and the username ban list on
// authenticated routes. Admins pass through both.
type SiteGuard struct {
	settings *repositories.SettingsRepository
}

func NewSiteGuard(settings *repositories.SettingsRepository) *SiteGuard {
	return &SiteGuard{settings: settings}
}

// cachedSetting reads a settings row through the redis cache.
func cachedSetting[T any](ctx context.Context, name string, load func(context.Context) (*T, error)) (*T, error) {
	key := cache.SettingsKey(name)
	if data, ok := cache.GetCached(ctx, key); ok {
		var v T
		if json.Unmarshal(data, &v) == nil {
			return &v, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(v); err == nil {
		cache.SetCached(ctx, key, data, cache.SettingsTTL)
	}
	return v, nil
}

// Handler must run after Authenticate.
func (g *SiteGuard) Handler(next http.Handler) http.Handler {
	log := logger.WithComponent("SiteGuard")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || actor.IsAdmin() {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()

		lockdown, err := cachedSetting(ctx, "lockdown", g.settings.SiteLockdown)
		if err != nil {
			log.WithError(err).Warn("could not read site lockdown")
		} else if lockdown.IsLocked {
			utils.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"error":    "Site is under maintenance",
				"message":  lockdown.Message,
				"lockdown": true,
			})
			return
		}

		ban, err := cachedSetting(ctx, "ban", g.settings.BanSettings)
		if err != nil {
			log.WithError(err).Warn("could not read ban settings")
		} else if ban.IsBanned(actor.Username) {
			utils.JSON(w, http.StatusForbidden, map[string]interface{}{
				"error":   "Account banned",
				"title":   ban.Title,
				"message": ban.Message,
				"banned":  true,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
