package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"depo-backend/internal/cache"
	"depo-backend/internal/codegen"
	"depo-backend/internal/labels"
	"depo-backend/internal/repositories"
	"depo-backend/internal/services"
	"depo-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// MediaHandler serves photo uploads and printable labels for all three
// entity kinds.
type MediaHandler struct {
	Photos    *services.PhotoService
	Boxes     *repositories.BoxRepository
	Pallets   *repositories.PalletRepository
	Shipments *repositories.ShipmentRepository
	// Printer is nil when no label printer is attached.
	Printer   *services.PrinterService
	BaseURL   string
}

func NewMediaHandler(photos *services.PhotoService, boxes *repositories.BoxRepository, pallets *repositories.PalletRepository, shipments *repositories.ShipmentRepository, baseURL string) *MediaHandler {
	return &MediaHandler{Photos: photos, Boxes: boxes, Pallets: pallets, Shipments: shipments, BaseURL: baseURL}
}

// UploadPhoto accepts a multipart "photo" field; ?slot=2 writes the second
// photo of a box or pallet.
func (h *MediaHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	kind, err := pathKind(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	slot := repositories.PhotoPrimary
	if s := r.URL.Query().Get("slot"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid photo slot")
			return
		}
		slot = repositories.PhotoSlot(n)
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoBytes+1<<20)
	file, _, err := r.FormFile("photo")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Could not read upload")
		return
	}

	code := mux.Vars(r)["code"]
	url, err := h.Photos.Upload(r.Context(), actor, kind, code, slot, data)
	if err != nil {
		respondErr(w, err)
		return
	}
	cache.InvalidatePublicPages(r.Context(), string(kind), code)
	utils.JSON(w, http.StatusOK, map[string]string{"url": url})
}

// Label renders the printable PDF label of an entity.
func (h *MediaHandler) Label(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	code := mux.Vars(r)["code"]
	l, err := h.label(r.Context(), kind, code)
	if err != nil {
		respondErr(w, err)
		return
	}

	pdf, err := labels.PDF(*l)
	if err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", code+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

type printBody struct {
	Copies int `json:"copies" validate:"omitempty,min=1,max=50"`
}

// Print sends the entity's label to the warehouse label printer.
func (h *MediaHandler) Print(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var body printBody
	if r.ContentLength > 0 {
		if err := utils.DecodeJSON(r, &body); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if body.Copies == 0 {
		body.Copies = 1
	}
	l, err := h.label(r.Context(), kind, mux.Vars(r)["code"])
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := h.Printer.PrintLabel(r.Context(), *l, body.Copies); err != nil {
		respondErr(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"printed": body.Copies})
}

func (h *MediaHandler) label(ctx context.Context, kind codegen.Kind, code string) (*labels.Label, error) {
	l := &labels.Label{
		Kind: strings.ToUpper(string(kind)),
		Code: code,
		URL:  labels.DetailURL(h.BaseURL, string(kind), code),
	}
	switch kind {
	case codegen.KindBox:
		b, err := h.Boxes.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		l.Title, l.CreatedBy, l.CreatedAt = b.Name, b.CreatedBy, b.CreatedAt
		for _, line := range b.Lines {
			l.Lines = append(l.Lines, fmt.Sprintf("%s x%d", line.ProductName, line.Qty))
		}
	case codegen.KindPallet:
		p, err := h.Pallets.GetByCodeWithChildren(ctx, code)
		if err != nil {
			return nil, err
		}
		l.Title, l.CreatedBy, l.CreatedAt = p.Name, p.CreatedBy, p.CreatedAt
		l.Lines = []string{fmt.Sprintf("%d boxes", len(p.Boxes))}
	case codegen.KindShipment:
		s, err := h.Shipments.GetByCodeWithChildren(ctx, code)
		if err != nil {
			return nil, err
		}
		l.Title, l.CreatedBy, l.CreatedAt = s.NameOrPlate, s.CreatedBy, s.CreatedAt
		l.Lines = []string{fmt.Sprintf("%d pallets, %d direct boxes", len(s.Pallets), len(s.DirectBoxes))}
	}
	return l, nil
}
