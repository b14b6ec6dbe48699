package handlers

import (
	"net/http"

	"depo-backend/internal/cache"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type PalletHandler struct {
	Repo      *repositories.PalletRepository
	Shipments *repositories.ShipmentRepository
}

func NewPalletHandler(repo *repositories.PalletRepository, shipments *repositories.ShipmentRepository) *PalletHandler {
	return &PalletHandler{Repo: repo, Shipments: shipments}
}

// ListPallets supports ?search=, ?shipment={code} and ?unassigned=true.
func (h *PalletHandler) ListPallets(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := models.PalletFilter{Search: q.Get("search"), Unassigned: q.Get("unassigned") == "true"}
	if code := q.Get("shipment"); code != "" {
		s, err := h.Shipments.GetByCode(r.Context(), code)
		if err != nil {
			respondErr(w, err)
			return
		}
		f.ShipmentID = &s.ID
	}

	pallets, err := h.Repo.List(r.Context(), actor, f)
	if err != nil {
		respondErr(w, err)
		return
	}
	if pallets == nil {
		pallets = []*models.Pallet{}
	}
	utils.JSON(w, http.StatusOK, pallets)
}

// GetPallet returns the pallet together with its boxes.
func (h *PalletHandler) GetPallet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.GetByCodeWithBoxes(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

func (h *PalletHandler) CreatePallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreatePalletRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Repo.Create(r.Context(), actor, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, p)
}

func (h *PalletHandler) UpdatePallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.UpdatePalletRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Repo.Update(r.Context(), actor, mux.Vars(r)["code"], req)
	if err != nil {
		respondErr(w, err)
		return
	}
	// Box pages show their pallet's name.
	cache.InvalidateAllPublicPages(r.Context())
	utils.JSON(w, http.StatusOK, p)
}

// DeletePallet unlinks the pallet's boxes and removes the pallet. Boxes survive.
func (h *PalletHandler) DeletePallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), actor, mux.Vars(r)["code"]); err != nil {
		respondErr(w, err)
		return
	}
	cache.InvalidateAllPublicPages(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *PalletHandler) AssignShipment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.AssignParentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Repo.AssignToShipment(r.Context(), actor, mux.Vars(r)["code"], req.ParentCode)
	if err != nil {
		respondErr(w, err)
		return
	}
	cache.InvalidateAllPublicPages(r.Context())
	utils.JSON(w, http.StatusOK, p)
}

func (h *PalletHandler) ClearShipment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	p, err := h.Repo.ClearShipment(r.Context(), actor, mux.Vars(r)["code"])
	if err != nil {
		respondErr(w, err)
		return
	}
	cache.InvalidateAllPublicPages(r.Context())
	utils.JSON(w, http.StatusOK, p)
}
