package repositories

import (
	"context"
	"fmt"
	"strings"

	"depo-backend/internal/codegen"
	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

type PalletRepository struct {
	Store store.Backend
	Codes *codegen.Generator
	Clock Clock
}

func NewPalletRepository(s store.Backend, codes *codegen.Generator) *PalletRepository {
	return &PalletRepository{Store: s, Codes: codes}
}

func (r *PalletRepository) List(ctx context.Context, actor models.Actor, f models.PalletFilter) ([]*models.Pallet, error) {
	if !actor.IsAdmin() {
		f.CreatedBy = actor.Username
	}
	return r.Store.ListPallets(ctx, f)
}

func (r *PalletRepository) GetByCode(ctx context.Context, code string) (*models.Pallet, error) {
	return r.Store.GetPallet(ctx, code)
}

func (r *PalletRepository) GetByID(ctx context.Context, id int64) (*models.Pallet, error) {
	return r.Store.GetPalletByID(ctx, id)
}

// GetByCodeWithChildren returns the pallet and the boxes stacked on it.
func (r *PalletRepository) GetByCodeWithChildren(ctx context.Context, code string) (*models.PalletWithBoxes, error) {
	p, err := r.Store.GetPallet(ctx, code)
	if err != nil {
		return nil, err
	}
	boxes, err := r.Store.ListBoxes(ctx, models.BoxFilter{PalletID: &p.ID})
	if err != nil {
		return nil, err
	}
	if boxes == nil {
		boxes = []*models.Box{}
	}
	return &models.PalletWithBoxes{Pallet: *p, Boxes: boxes}, nil
}

func (r *PalletRepository) GetByCodeWithBoxes(ctx context.Context, code string) (*models.PalletWithBoxes, error) {
	return r.GetByCodeWithChildren(ctx, code)
}

func (r *PalletRepository) owned(ctx context.Context, actor models.Actor, code string) (*models.Pallet, error) {
	p, err := r.Store.GetPallet(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, p.CreatedBy); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PalletRepository) Create(ctx context.Context, actor models.Actor, req models.CreatePalletRequest) (*models.Pallet, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("pallet name is required: %w", store.ErrInvalid)
	}
	code, err := r.Codes.Next(ctx, codegen.KindPallet, codegen.ExistsVia(r.Store.GetPallet))
	if err != nil {
		return nil, err
	}
	p := &models.Pallet{
		Code:      code,
		Name:      name,
		CreatedBy: actor.Username,
		CreatedAt: r.Clock.now(),
	}
	if err := r.Store.InsertPallet(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PalletRepository) Update(ctx context.Context, actor models.Actor, code string, patch models.UpdatePalletRequest) (*models.Pallet, error) {
	p, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("pallet name is required: %w", store.ErrInvalid)
		}
		p.Name = name
	}
	if err := r.Store.UpdatePallet(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete first takes every box off the pallet, then removes the pallet.
// The boxes themselves survive.
func (r *PalletRepository) Delete(ctx context.Context, actor models.Actor, code string) error {
	p, err := r.owned(ctx, actor, code)
	if err != nil {
		return err
	}
	boxes, err := r.Store.ListBoxes(ctx, models.BoxFilter{PalletID: &p.ID})
	if err != nil {
		return err
	}
	err = clearReferences(ctx, boxCodes(boxes), func(ctx context.Context, c string) error {
		return r.Store.SetBoxPallet(ctx, c, nil)
	})
	if err != nil {
		return err
	}
	return r.Store.DeletePallet(ctx, code)
}

// AssignToParent loads the pallet into a shipment.
func (r *PalletRepository) AssignToParent(ctx context.Context, actor models.Actor, code, shipmentCode string) (*models.Pallet, error) {
	p, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	s, err := r.Store.GetShipment(ctx, shipmentCode)
	if err != nil {
		return nil, fmt.Errorf("shipment %s: %w", shipmentCode, err)
	}
	if err := r.Store.SetPalletShipment(ctx, code, &s.ID); err != nil {
		return nil, err
	}
	p.ShipmentID = &s.ID
	return p, nil
}

// ClearParent takes the pallet out of its shipment. No-op when unassigned.
func (r *PalletRepository) ClearParent(ctx context.Context, actor models.Actor, code string) (*models.Pallet, error) {
	p, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if p.ShipmentID == nil {
		return p, nil
	}
	if err := r.Store.SetPalletShipment(ctx, code, nil); err != nil {
		return nil, err
	}
	p.ShipmentID = nil
	return p, nil
}

func (r *PalletRepository) AssignToShipment(ctx context.Context, actor models.Actor, code, shipmentCode string) (*models.Pallet, error) {
	return r.AssignToParent(ctx, actor, code, shipmentCode)
}

func (r *PalletRepository) ClearShipment(ctx context.Context, actor models.Actor, code string) (*models.Pallet, error) {
	return r.ClearParent(ctx, actor, code)
}

func (r *PalletRepository) SetPhoto(ctx context.Context, actor models.Actor, code string, slot PhotoSlot, url string) (*models.Pallet, error) {
	p, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if err := setPhoto(&p.PhotoURL, &p.PhotoURL2, slot, url); err != nil {
		return nil, err
	}
	if err := r.Store.UpdatePallet(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
