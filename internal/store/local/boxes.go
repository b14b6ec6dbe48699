package local

import (
	"context"
	"sort"
	"strings"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

func matchBox(f models.BoxFilter, b *models.Box) bool {
	if f.CreatedBy != "" && b.CreatedBy != f.CreatedBy {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.PalletID != nil && (b.PalletID == nil || *b.PalletID != *f.PalletID) {
		return false
	}
	if f.ShipmentID != nil && (b.ShipmentID == nil || *b.ShipmentID != *f.ShipmentID) {
		return false
	}
	if f.Unpalletized && b.PalletID != nil {
		return false
	}
	if f.Search != "" && !containsFold(b.Code, f.Search) && !containsFold(b.Name, f.Search) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (b *Backend) ListBoxes(ctx context.Context, f models.BoxFilter) ([]*models.Box, error) {
	items, err := load[models.Box](b, keyBoxes)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Box, 0, len(items))
	for i := range items {
		if matchBox(f, &items[i]) {
			out = append(out, &items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (b *Backend) GetBox(ctx context.Context, code string) (*models.Box, error) {
	items, err := load[models.Box](b, keyBoxes)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Code == code {
			return &items[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (b *Backend) InsertBox(ctx context.Context, box *models.Box) error {
	return mutate(b, keyBoxes, func(items []models.Box) ([]models.Box, error) {
		var maxID int64
		for _, it := range items {
			if it.Code == box.Code {
				return nil, store.ErrConflict
			}
			if it.ID > maxID {
				maxID = it.ID
			}
		}
		box.ID = maxID + 1
		assignLineIDs(box.Lines)
		return append(items, *box), nil
	})
}

// assignLineIDs numbers lines that have no ID yet, continuing after the highest one.
func assignLineIDs(lines []models.BoxLine) {
	var maxID int64
	for _, l := range lines {
		if l.ID > maxID {
			maxID = l.ID
		}
	}
	for i := range lines {
		if lines[i].ID == 0 {
			maxID++
			lines[i].ID = maxID
		}
	}
}

func updateBox(b *Backend, code string, fn func(*models.Box)) error {
	return mutate(b, keyBoxes, func(items []models.Box) ([]models.Box, error) {
		for i := range items {
			if items[i].Code == code {
				fn(&items[i])
				return items, nil
			}
		}
		return nil, store.ErrNotFound
	})
}

func (b *Backend) UpdateBox(ctx context.Context, box *models.Box) error {
	assignLineIDs(box.Lines)
	return updateBox(b, box.Code, func(stored *models.Box) {
		stored.Name = box.Name
		stored.Status = box.Status
		stored.DepartmentID = box.DepartmentID
		stored.PhotoURL = box.PhotoURL
		stored.PhotoURL2 = box.PhotoURL2
		stored.PalletID = box.PalletID
		stored.IsDirectShipment = box.IsDirectShipment
		stored.ShipmentID = box.ShipmentID
		stored.Lines = append([]models.BoxLine(nil), box.Lines...)
	})
}

func (b *Backend) DeleteBox(ctx context.Context, code string) error {
	return mutate(b, keyBoxes, func(items []models.Box) ([]models.Box, error) {
		for i := range items {
			if items[i].Code == code {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, store.ErrNotFound
	})
}

func (b *Backend) SetBoxPallet(ctx context.Context, code string, palletID *int64) error {
	return updateBox(b, code, func(stored *models.Box) {
		stored.PalletID = palletID
	})
}

func (b *Backend) SetBoxShipment(ctx context.Context, code string, direct bool, shipmentID *int64) error {
	return updateBox(b, code, func(stored *models.Box) {
		stored.IsDirectShipment = direct
		stored.ShipmentID = shipmentID
	})
}
