package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"depo-backend/internal/cache"
	"depo-backend/internal/codegen"
	"depo-backend/internal/labels"
	"depo-backend/internal/logger"
	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// PublicHandler serves the unauthenticated detail pages a label's QR code
// opens. Responses are cached in redis for cache.PublicPageTTL.
type PublicHandler struct {
	Boxes     *repositories.BoxRepository
	Pallets   *repositories.PalletRepository
	Shipments *repositories.ShipmentRepository
	BaseURL   string
	log       *logrus.Entry
}

func NewPublicHandler(boxes *repositories.BoxRepository, pallets *repositories.PalletRepository, shipments *repositories.ShipmentRepository, baseURL string) *PublicHandler {
	return &PublicHandler{
		Boxes:     boxes,
		Pallets:   pallets,
		Shipments: shipments,
		BaseURL:   baseURL,
		log:       logger.WithComponent("PublicPage"),
	}
}

type parentRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type childRef struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
	Qty    int    `json:"total_qty,omitempty"`
}

type publicPage struct {
	Kind      string           `json:"kind"`
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Status    string           `json:"status,omitempty"`
	CreatedBy string           `json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
	Photos    []string         `json:"photos"`
	Lines     []models.BoxLine `json:"lines,omitempty"`
	TotalQty  int              `json:"total_qty,omitempty"`
	Pallet    *parentRef       `json:"pallet,omitempty"`
	Shipment  *parentRef       `json:"shipment,omitempty"`
	Pallets   []childRef       `json:"pallets,omitempty"`
	Boxes     []childRef       `json:"boxes,omitempty"`
	QRURL     string           `json:"qr_url"`
}

func (h *PublicHandler) Detail(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	code := mux.Vars(r)["code"]
	key := cache.PublicPageKey(string(kind), code)

	if data, ok := cache.GetCached(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(data)
		return
	}

	page, err := h.page(r.Context(), kind, code)
	if err != nil {
		respondErr(w, err)
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		respondErr(w, err)
		return
	}
	cache.SetCached(r.Context(), key, data, cache.PublicPageTTL)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(data)
}

// QRCode returns the PNG QR code pointing at the entity's detail page.
// ?size= sets the edge length in pixels.
func (h *PublicHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := labels.QRPNG(labels.DetailURL(h.BaseURL, string(kind), mux.Vars(r)["code"]), size)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "Could not render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(png)
}

func (h *PublicHandler) page(ctx context.Context, kind codegen.Kind, code string) (*publicPage, error) {
	page := &publicPage{Kind: string(kind), Code: code, QRURL: labels.DetailURL(h.BaseURL, string(kind), code) + "/qr.png"}
	switch kind {
	case codegen.KindBox:
		b, err := h.Boxes.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		page.Name, page.Status, page.CreatedBy, page.CreatedAt = b.Name, b.Status, b.CreatedBy, b.CreatedAt
		page.Photos = photos(b.PhotoURL, b.PhotoURL2)
		page.Lines, page.TotalQty = b.Lines, b.TotalQty()

		shipmentID := b.ShipmentID
		if b.PalletID != nil {
			if p, err := h.Pallets.GetByID(ctx, *b.PalletID); err == nil {
				page.Pallet = &parentRef{Code: p.Code, Name: p.Name}
				shipmentID = p.ShipmentID
			} else {
				h.log.WithError(err).WithField("box", code).Warn("box points at a missing pallet")
			}
		}
		page.Shipment = h.shipmentRef(ctx, shipmentID)

	case codegen.KindPallet:
		p, err := h.Pallets.GetByCodeWithChildren(ctx, code)
		if err != nil {
			return nil, err
		}
		page.Name, page.CreatedBy, page.CreatedAt = p.Name, p.CreatedBy, p.CreatedAt
		page.Photos = photos(p.PhotoURL, p.PhotoURL2)
		page.Shipment = h.shipmentRef(ctx, p.ShipmentID)
		page.Boxes = boxRefs(p.Boxes)

	case codegen.KindShipment:
		s, err := h.Shipments.GetByCodeWithChildren(ctx, code)
		if err != nil {
			return nil, err
		}
		page.Name, page.CreatedBy, page.CreatedAt = s.NameOrPlate, s.CreatedBy, s.CreatedAt
		page.Photos = photos(s.PhotoURL)
		for _, p := range s.Pallets {
			page.Pallets = append(page.Pallets, childRef{Code: p.Code, Name: p.Name})
		}
		page.Boxes = boxRefs(s.DirectBoxes)
	}
	return page, nil
}

func (h *PublicHandler) shipmentRef(ctx context.Context, id *int64) *parentRef {
	if id == nil {
		return nil
	}
	s, err := h.Shipments.GetByID(ctx, *id)
	if err != nil {
		return nil
	}
	return &parentRef{Code: s.Code, Name: s.NameOrPlate}
}

func photos(urls ...string) []string {
	out := []string{}
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

func boxRefs(boxes []*models.Box) []childRef {
	refs := make([]childRef, 0, len(boxes))
	for _, b := range boxes {
		refs = append(refs, childRef{Code: b.Code, Name: b.Name, Status: b.Status, Qty: b.TotalQty()})
	}
	return refs
}
