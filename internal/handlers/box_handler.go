package handlers

import (
	"context"
	"net/http"

	"depo-backend/internal/cache"
	"depo-backend/internal/codegen"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type BoxHandler struct {
	Repo    *repositories.BoxRepository
	Pallets *repositories.PalletRepository
}

func NewBoxHandler(repo *repositories.BoxRepository, pallets *repositories.PalletRepository) *BoxHandler {
	return &BoxHandler{Repo: repo, Pallets: pallets}
}

// ListBoxes supports ?status=, ?search=, ?pallet={code} and ?unpalletized=true.
func (h *BoxHandler) ListBoxes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := models.BoxFilter{
		Status:       q.Get("status"),
		Search:       q.Get("search"),
		Unpalletized: q.Get("unpalletized") == "true",
	}
	if code := q.Get("pallet"); code != "" {
		p, err := h.Pallets.GetByCode(r.Context(), code)
		if err != nil {
			respondErr(w, err)
			return
		}
		f.PalletID = &p.ID
	}

	boxes, err := h.Repo.List(r.Context(), actor, f)
	if err != nil {
		respondErr(w, err)
		return
	}
	if boxes == nil {
		boxes = []*models.Box{}
	}
	utils.JSON(w, http.StatusOK, boxes)
}

func (h *BoxHandler) GetBox(w http.ResponseWriter, r *http.Request) {
	box, err := h.Repo.GetByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, box)
}

func (h *BoxHandler) CreateBox(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateBoxRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	box, err := h.Repo.Create(r.Context(), actor, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, box)
}

func (h *BoxHandler) UpdateBox(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.UpdateBoxRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	box, err := h.Repo.Update(r.Context(), actor, mux.Vars(r)["code"], req)
	h.respondBox(w, r, box, err)
}

func (h *BoxHandler) DeleteBox(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	code := mux.Vars(r)["code"]
	if err := h.Repo.Delete(r.Context(), actor, code); err != nil {
		respondErr(w, err)
		return
	}
	cache.InvalidateAllPublicPages(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoxHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.BoxLineInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	box, err := h.Repo.AddLine(r.Context(), actor, mux.Vars(r)["code"], req)
	h.respondBox(w, r, box, err)
}

func (h *BoxHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	lineID, ok := pathID(r, "lineID")
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Invalid line ID")
		return
	}

	box, err := h.Repo.RemoveLine(r.Context(), actor, mux.Vars(r)["code"], lineID)
	h.respondBox(w, r, box, err)
}

func (h *BoxHandler) SealBox(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	box, err := h.Repo.Seal(r.Context(), actor, mux.Vars(r)["code"])
	h.respondBox(w, r, box, err)
}

// AssignParent puts the box on a pallet (PLT-...) or directly on a shipment (SHP-...).
func (h *BoxHandler) AssignParent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.AssignParentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	box, err := h.Repo.AssignToParent(r.Context(), actor, mux.Vars(r)["code"], req.ParentCode)
	if err == nil {
		cache.InvalidateAllPublicPages(r.Context())
	}
	h.respondBox(w, r, box, err)
}

func (h *BoxHandler) ClearParent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	box, err := h.Repo.ClearParent(r.Context(), actor, mux.Vars(r)["code"])
	if err == nil {
		cache.InvalidateAllPublicPages(r.Context())
	}
	h.respondBox(w, r, box, err)
}

func (h *BoxHandler) respondBox(w http.ResponseWriter, r *http.Request, box *models.Box, err error) {
	if err != nil {
		respondErr(w, err)
		return
	}
	invalidateBoxPages(r.Context(), box)
	utils.JSON(w, http.StatusOK, box)
}

// invalidateBoxPages drops the cached public page of the box. Its parent's page
// lists the box name and status, so that one goes too.
func invalidateBoxPages(ctx context.Context, box *models.Box) {
	cache.InvalidatePublicPages(ctx, string(codegen.KindBox), box.Code)
	if box.PalletID != nil || box.ShipmentID != nil {
		cache.InvalidatePattern(ctx, "public:pallet:*")
		cache.InvalidatePattern(ctx, "public:shipment:*")
	}
}
