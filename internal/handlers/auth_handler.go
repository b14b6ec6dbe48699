package handlers

import (
	"net/http"

	"depo-backend/internal/models"
	"depo-backend/internal/services"
	"depo-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.UserService
}

func NewAuthHandler(s *services.UserService) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req, clientInfo(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, authResp)
}

// Resume is called by a client that reopened with a stored token.
func (h *AuthHandler) Resume(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	user, err := h.Service.Resume(r.Context(), actor, clientInfo(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.Service.Logout(r.Context(), actor, clientInfo(r)); err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Logout recorded successfully"})
}

// Heartbeat keeps the caller in the active sessions list.
func (h *AuthHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.HeartbeatRequest
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.Service.Heartbeat(r.Context(), actor, req, clientInfo(r)); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
