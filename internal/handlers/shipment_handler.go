package handlers

import (
	"fmt"
	"net/http"

	"depo-backend/internal/cache"
	"depo-backend/internal/codegen"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/internal/services"
	"depo-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ShipmentHandler struct {
	Repo   *repositories.ShipmentRepository
	Export *services.ExportService
}

func NewShipmentHandler(repo *repositories.ShipmentRepository, export *services.ExportService) *ShipmentHandler {
	return &ShipmentHandler{Repo: repo, Export: export}
}

func (h *ShipmentHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	shipments, err := h.Repo.List(r.Context(), actor, models.ShipmentFilter{Search: r.URL.Query().Get("search")})
	if err != nil {
		respondErr(w, err)
		return
	}
	if shipments == nil {
		shipments = []*models.Shipment{}
	}
	utils.JSON(w, http.StatusOK, shipments)
}

// GetShipment returns the shipment with its pallets and direct boxes.
func (h *ShipmentHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.GetByCodeWithPallets(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

func (h *ShipmentHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateShipmentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.Repo.Create(r.Context(), actor, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, s)
}

func (h *ShipmentHandler) UpdateShipment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.UpdateShipmentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.Repo.Update(r.Context(), actor, mux.Vars(r)["code"], req)
	if err != nil {
		respondErr(w, err)
		return
	}
	cache.InvalidatePublicPages(r.Context(), string(codegen.KindShipment), s.Code)
	utils.JSON(w, http.StatusOK, s)
}

// DeleteShipment unlinks pallets and boxes before removing the shipment.
func (h *ShipmentHandler) DeleteShipment(w http.ResponseWriter, r *http.Request) {
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

// ExportManifest streams the loading manifest as an XLSX download.
func (h *ShipmentHandler) ExportManifest(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.Export.ShipmentManifest(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
