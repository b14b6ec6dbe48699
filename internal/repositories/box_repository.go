package repositories

import (
	"context"
	"fmt"
	"strings"

	"depo-backend/internal/codegen"
	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

type BoxRepository struct {
	Store store.Backend
	Codes *codegen.Generator
	Clock Clock
}

func NewBoxRepository(s store.Backend, codes *codegen.Generator) *BoxRepository {
	return &BoxRepository{Store: s, Codes: codes}
}

// List returns boxes newest first. Non-admins only see their own boxes.
func (r *BoxRepository) List(ctx context.Context, actor models.Actor, f models.BoxFilter) ([]*models.Box, error) {
	if !actor.IsAdmin() {
		f.CreatedBy = actor.Username
	}
	return r.Store.ListBoxes(ctx, f)
}

// GetByCode is unscoped; it backs the public detail page too.
func (r *BoxRepository) GetByCode(ctx context.Context, code string) (*models.Box, error) {
	return r.Store.GetBox(ctx, code)
}

func (r *BoxRepository) owned(ctx context.Context, actor models.Actor, code string) (*models.Box, error) {
	box, err := r.Store.GetBox(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, box.CreatedBy); err != nil {
		return nil, err
	}
	return box, nil
}

func (r *BoxRepository) Create(ctx context.Context, actor models.Actor, req models.CreateBoxRequest) (*models.Box, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("box name is required: %w", store.ErrInvalid)
	}
	lines := make([]models.BoxLine, 0, len(req.Lines))
	for _, in := range req.Lines {
		l, err := newLine(in)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	code, err := r.Codes.Next(ctx, codegen.KindBox, codegen.ExistsVia(r.Store.GetBox))
	if err != nil {
		return nil, err
	}
	box := &models.Box{
		Code:         code,
		Name:         name,
		Status:       models.BoxStatusDraft,
		DepartmentID: req.DepartmentID,
		CreatedBy:    actor.Username,
		CreatedAt:    r.Clock.now(),
		Lines:        lines,
	}
	if err := r.Store.InsertBox(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}

func newLine(in models.BoxLineInput) (models.BoxLine, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" || in.Qty < 1 {
		return models.BoxLine{}, fmt.Errorf("line needs a product name and a positive quantity: %w", store.ErrInvalid)
	}
	return models.BoxLine{ProductName: name, Qty: in.Qty, Kind: strings.TrimSpace(in.Kind)}, nil
}

func (r *BoxRepository) Update(ctx context.Context, actor models.Actor, code string, patch models.UpdateBoxRequest) (*models.Box, error) {
	box, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("box name is required: %w", store.ErrInvalid)
		}
		box.Name = name
	}
	if patch.DepartmentID != nil {
		box.DepartmentID = patch.DepartmentID
	}
	if err := r.Store.UpdateBox(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}

// Delete removes the box with its lines. Boxes own no other entities.
func (r *BoxRepository) Delete(ctx context.Context, actor models.Actor, code string) error {
	if _, err := r.owned(ctx, actor, code); err != nil {
		return err
	}
	return r.Store.DeleteBox(ctx, code)
}

func (r *BoxRepository) AddLine(ctx context.Context, actor models.Actor, code string, in models.BoxLineInput) (*models.Box, error) {
	box, err := r.editable(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	l, err := newLine(in)
	if err != nil {
		return nil, err
	}
	box.Lines = append(box.Lines, l)
	if err := r.Store.UpdateBox(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}

func (r *BoxRepository) RemoveLine(ctx context.Context, actor models.Actor, code string, lineID int64) (*models.Box, error) {
	box, err := r.editable(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	kept := box.Lines[:0]
	found := false
	for _, l := range box.Lines {
		if l.ID == lineID {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		return nil, fmt.Errorf("line %d of %s: %w", lineID, code, store.ErrNotFound)
	}
	box.Lines = kept
	if err := r.Store.UpdateBox(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}

func (r *BoxRepository) editable(ctx context.Context, actor models.Actor, code string) (*models.Box, error) {
	box, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if box.Status == models.BoxStatusSealed {
		return nil, fmt.Errorf("box %s is sealed: %w", code, store.ErrInvalid)
	}
	return box, nil
}

// Seal freezes the line list. An empty box cannot be sealed.
func (r *BoxRepository) Seal(ctx context.Context, actor models.Actor, code string) (*models.Box, error) {
	box, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if box.Status == models.BoxStatusSealed {
		return box, nil
	}
	if len(box.Lines) == 0 {
		return nil, fmt.Errorf("box %s has no lines: %w", code, store.ErrInvalid)
	}
	box.Status = models.BoxStatusSealed
	if err := r.Store.UpdateBox(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}

// AssignToParent places the box on a pallet or directly into a shipment,
// depending on the parent code's prefix.
func (r *BoxRepository) AssignToParent(ctx context.Context, actor models.Actor, code, parentCode string) (*models.Box, error) {
	kind, err := codegen.KindOf(parentCode)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, store.ErrInvalid)
	}
	switch kind {
	case codegen.KindPallet:
		return r.AssignToPallet(ctx, actor, code, parentCode)
	case codegen.KindShipment:
		return r.MarkDirectShipment(ctx, actor, code, parentCode)
	}
	return nil, fmt.Errorf("a box cannot belong to %s: %w", parentCode, store.ErrInvalid)
}

// ClearParent detaches the box from whatever holds it. No-op when loose.
func (r *BoxRepository) ClearParent(ctx context.Context, actor models.Actor, code string) (*models.Box, error) {
	box, err := r.ClearPallet(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if box.IsDirectShipment || box.ShipmentID != nil {
		return r.ClearDirectShipment(ctx, actor, code)
	}
	return box, nil
}

// AssignToPallet also drops a direct-shipment link: a box sits on a pallet
// or directly in a shipment, never both.
func (r *BoxRepository) AssignToPallet(ctx context.Context, actor models.Actor, code, palletCode string) (*models.Box, error) {
	box, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	pallet, err := r.Store.GetPallet(ctx, palletCode)
	if err != nil {
		return nil, fmt.Errorf("pallet %s: %w", palletCode, err)
	}
	if box.IsDirectShipment || box.ShipmentID != nil {
		if err := r.Store.SetBoxShipment(ctx, code, false, nil); err != nil {
			return nil, err
		}
		box.IsDirectShipment, box.ShipmentID = false, nil
	}
	if err := r.Store.SetBoxPallet(ctx, code, &pallet.ID); err != nil {
		return nil, err
	}
	box.PalletID = &pallet.ID
	return box, nil
}

func (r *BoxRepository) ClearPallet(ctx context.Context, actor models.Actor, code string) (*models.Box, error) {
	box, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if box.PalletID == nil {
		return box, nil
	}
	if err := r.Store.SetBoxPallet(ctx, code, nil); err != nil {
		return nil, err
	}
	box.PalletID = nil
	return box, nil
}

// MarkDirectShipment puts the box straight into a shipment, taking it off its pallet.
func (r *BoxRepository) MarkDirectShipment(ctx context.Context, actor models.Actor, code, shipmentCode string) (*models.Box, error) {
	box, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	shipment, err := r.Store.GetShipment(ctx, shipmentCode)
	if err != nil {
		return nil, fmt.Errorf("shipment %s: %w", shipmentCode, err)
	}
	if box.PalletID != nil {
		if err := r.Store.SetBoxPallet(ctx, code, nil); err != nil {
			return nil, err
		}
		box.PalletID = nil
	}
	if err := r.Store.SetBoxShipment(ctx, code, true, &shipment.ID); err != nil {
		return nil, err
	}
	box.IsDirectShipment, box.ShipmentID = true, &shipment.ID
	return box, nil
}

func (r *BoxRepository) ClearDirectShipment(ctx context.Context, actor models.Actor, code string) (*models.Box, error) {
	box, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if !box.IsDirectShipment && box.ShipmentID == nil {
		return box, nil
	}
	if err := r.Store.SetBoxShipment(ctx, code, false, nil); err != nil {
		return nil, err
	}
	box.IsDirectShipment, box.ShipmentID = false, nil
	return box, nil
}

func (r *BoxRepository) SetPhoto(ctx context.Context, actor models.Actor, code string, slot PhotoSlot, url string) (*models.Box, error) {
	box, err := r.owned(ctx, actor, code)
	if err != nil {
		return nil, err
	}
	if err := setPhoto(&box.PhotoURL, &box.PhotoURL2, slot, url); err != nil {
		return nil, err
	}
	if err := r.Store.UpdateBox(ctx, box); err != nil {
		return nil, err
	}
	return box, nil
}
