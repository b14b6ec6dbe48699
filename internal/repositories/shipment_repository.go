package repositories

import (
	"context"
	"fmt"
	"strings"

	"depo-backend/internal/codegen"
	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

type ShipmentRepository struct {
	Store store.Backend
	Codes *codegen.Generator
	Clock Clock
}

func NewShipmentRepository(s store.Backend, codes *codegen.Generator) *ShipmentRepository {
	return &ShipmentRepository{Store: s, Codes: codes}
}

func (r *ShipmentRepository) List(ctx context.Context, actor models.Actor, f models.ShipmentFilter) ([]*models.Shipment, error) {
	if !actor.IsAdmin() {
		f.CreatedBy = actor.Username
	}
	return r.Store.ListShipments(ctx, f)
}

func (r *ShipmentRepository) GetByCode(ctx context.Context, code string) (*models.Shipment, error) {
	return r.Store.GetShipment(ctx, code)
}

func (r *ShipmentRepository) GetByID(ctx context.Context, id int64) (*models.Shipment, error) {
	return r.Store.GetShipmentByID(ctx, id)
}

// children returns the shipment's pallets and every box whose shipment_id
// points at it.
func (r *ShipmentRepository) children(ctx context.Context, id int64) ([]*models.Pallet, []*models.Box, error) {
	pallets, err := r.Store.ListPallets(ctx, models.PalletFilter{ShipmentID: &id})
	if err != nil {
		return nil, nil, err
	}
	linked, err := r.Store.ListBoxes(ctx, models.BoxFilter{ShipmentID: &id})
	if err != nil {
		return nil, nil, err
	}
	if pallets == nil {
		pallets = []*models.Pallet{}
	}
	return pallets, linked, nil
}

func directOnly(linked []*models.Box) []*models.Box {
	direct := make([]*models.Box, 0, len(linked))
	for _, b := range linked {
		if b.IsDirectShipment {
			direct = append(direct, b)
		}
	}
	return direct
}

// GetByCodeWithChildren returns the shipment with its pallets and the boxes
// loaded into it directly.
func (r *ShipmentRepository) GetByCodeWithChildren(ctx context.Context, code string) (*models.ShipmentWithPallets, error) {
	s, err := r.Store.GetShipment(ctx, code)
	if err != nil {
		return nil, err
	}
	pallets, linked, err := r.children(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return &models.ShipmentWithPallets{Shipment: *s, Pallets: pallets, DirectBoxes: directOnly(linked)}, nil
}

func (r *ShipmentRepository) GetByCodeWithPallets(ctx context.Context, code string) (*models.ShipmentWithPallets, error) {
	return r.GetByCodeWithChildren(ctx, code)
}

func (r *ShipmentRepository) owned(ctx context.Context, actor models.Actor, code string) (*models.Shipment, error) {
	s, err := r.Store.GetShipment(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, s.CreatedBy); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ShipmentRepository) Create(ctx context.Context, actor models.Actor, req models.CreateShipmentRequest) (*models.Shipment, error) {
	name := strings.TrimSpace(req.NameOrPlate)
	if name == "" {
		return nil, fmt.Errorf("shipment name or plate is required: %w", store.ErrInvalid)
	}
	code, err := r.Codes.Next(ctx, codegen.KindShipment, codegen.ExistsVia(r.Store.GetShipment))
	if err != nil {
		return nil, err
	}
	s := &models.Shipment{
		Code:        code,
		NameOrPlate: name,
		CreatedBy:   actor.Username,
		CreatedAt:   r.Clock.now(),
	}
	if err := r.Store.InsertShipment(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ShipmentRepository) Update(ctx context.Context, actor models.Actor, code string, patch models.UpdateShipmentRequest) (*models.Shipment, error) {
	s, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if patch.NameOrPlate != nil {
		name := strings.TrimSpace(*patch.NameOrPlate)
		if name == "" {
			return nil, fmt.Errorf("shipment name or plate is required: %w", store.ErrInvalid)
		}
		s.NameOrPlate = name
	}
	if err := r.Store.UpdateShipment(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete unlinks the shipment's pallets and direct boxes, then removes it.
// Boxes on those pallets stay on their pallets.
func (r *ShipmentRepository) Delete(ctx context.Context, actor models.Actor, code string) error {
	s, err := r.owned(ctx, actor, code)
	if err != nil {
		return err
	}
	pallets, linked, err := r.children(ctx, s.ID)
	if err != nil {
		return err
	}
	err = clearReferences(ctx, palletCodes(pallets), func(ctx context.Context, c string) error {
		return r.Store.SetPalletShipment(ctx, c, nil)
	})
	if err != nil {
		return err
	}
	err = clearReferences(ctx, boxCodes(linked), func(ctx context.Context, c string) error {
		return r.Store.SetBoxShipment(ctx, c, false, nil)
	})
	if err != nil {
		return err
	}
	return r.Store.DeleteShipment(ctx, code)
}

func (r *ShipmentRepository) SetPhoto(ctx context.Context, actor models.Actor, code string, slot PhotoSlot, url string) (*models.Shipment, error) {
	s, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if err := setPhoto(&s.PhotoURL, nil, slot, url); err != nil {
		return nil, err
	}
	if err := r.Store.UpdateShipment(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
