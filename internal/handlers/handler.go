package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"depo-backend/internal/codegen"
	"depo-backend/internal/middleware"
	"depo-backend/internal/models"
	"depo-backend/internal/objectstore"
	"depo-backend/internal/services"
	"depo-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// actorFrom returns the caller placed in the context by the auth middleware.
// Routes without it are a wiring bug, so the request is refused.
func actorFrom(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "User not authenticated")
	}
	return actor, ok
}

func clientInfo(r *http.Request) services.ClientInfo {
	return services.ClientInfo{IPAddress: utils.ClientIP(r), UserAgent: r.UserAgent()}
}

// respondErr extends utils.RespondStoreError with the errors of the service
// layer.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUserInactive):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, codegen.ErrUnknownKind):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, codegen.ErrCodeExhausted), errors.Is(err, objectstore.ErrNotConfigured),
		errors.Is(err, services.ErrPrinterNotConfigured):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		utils.RespondStoreError(w, err)
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil && id > 0
}

func pathKind(r *http.Request) (codegen.Kind, error) {
	return codegen.ParseKind(mux.Vars(r)["kind"])
}
