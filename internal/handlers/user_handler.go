package handlers

import (
	"errors"
	"net/http"

	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/internal/services"
	"depo-backend/internal/store"
	"depo-backend/pkg/utils"
)

type UserHandler struct {
	Service     *services.UserService
	Departments *repositories.DepartmentRepository
}

func NewUserHandler(s *services.UserService, departments *repositories.DepartmentRepository) *UserHandler {
	return &UserHandler{Service: s, Departments: departments}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.checkDepartment(w, r, req.DepartmentID) {
		return
	}
	user, err := h.Service.CreateUser(r.Context(), &req)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	user, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

// ListUsers returns all users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	utils.JSON(w, http.StatusOK, users)
}

type updateUserBody struct {
	models.UpdateUserRequest
	IsActive *bool `json:"is_active"`
}

// UpdateUser updates an existing user
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	var body updateUserBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.checkDepartment(w, r, body.DepartmentID) {
		return
	}
	user, err := h.Service.UpdateUser(r.Context(), id, &body.UpdateUserRequest, body.IsActive)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

// DeleteUser deletes a user
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if err := h.Service.DeleteUser(r.Context(), actor, id); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkDepartment rejects a department_id that does not exist with 400
// rather than the 404 the lookup returns.
func (h *UserHandler) checkDepartment(w http.ResponseWriter, r *http.Request, id *int64) bool {
	if id == nil {
		return true
	}
	_, err := h.Departments.Get(r.Context(), *id)
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrNotFound):
		utils.RespondError(w, http.StatusBadRequest, "Unknown department")
	default:
		respondErr(w, err)
	}
	return false
}

func (h *UserHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.Departments.List(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	if deps == nil {
		deps = []*models.Department{}
	}
	utils.JSON(w, http.StatusOK, deps)
}

func (h *UserHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDepartmentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.Departments.Create(r.Context(), req.Name)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, d)
}
