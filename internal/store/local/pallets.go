package local

import (
	"context"
	"sort"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

func matchPallet(f models.PalletFilter, p *models.Pallet) bool {
	if f.CreatedBy != "" && p.CreatedBy != f.CreatedBy {
		return false
	}
	if f.ShipmentID != nil && (p.ShipmentID == nil || *p.ShipmentID != *f.ShipmentID) {
		return false
	}
	if f.Unassigned && p.ShipmentID != nil {
		return false
	}
	if f.Search != "" && !containsFold(p.Code, f.Search) && !containsFold(p.Name, f.Search) {
		return false
	}
	return true
}

func (b *Backend) ListPallets(ctx context.Context, f models.PalletFilter) ([]*models.Pallet, error) {
	items, err := load[models.Pallet](b, keyPallets)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Pallet, 0, len(items))
	for i := range items {
		if matchPallet(f, &items[i]) {
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

func (b *Backend) findPallet(match func(*models.Pallet) bool) (*models.Pallet, error) {
	items, err := load[models.Pallet](b, keyPallets)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if match(&items[i]) {
			return &items[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (b *Backend) GetPallet(ctx context.Context, code string) (*models.Pallet, error) {
	return b.findPallet(func(p *models.Pallet) bool { return p.Code == code })
}

func (b *Backend) GetPalletByID(ctx context.Context, id int64) (*models.Pallet, error) {
	return b.findPallet(func(p *models.Pallet) bool { return p.ID == id })
}

func (b *Backend) InsertPallet(ctx context.Context, p *models.Pallet) error {
	return mutate(b, keyPallets, func(items []models.Pallet) ([]models.Pallet, error) {
		var maxID int64
		for _, it := range items {
			if it.Code == p.Code {
				return nil, store.ErrConflict
			}
			if it.ID > maxID {
				maxID = it.ID
			}
		}
		p.ID = maxID + 1
		return append(items, *p), nil
	})
}

func updatePallet(b *Backend, code string, fn func(*models.Pallet)) error {
	return mutate(b, keyPallets, func(items []models.Pallet) ([]models.Pallet, error) {
		for i := range items {
			if items[i].Code == code {
				fn(&items[i])
				return items, nil
			}
		}
		return nil, store.ErrNotFound
	})
}

func (b *Backend) UpdatePallet(ctx context.Context, p *models.Pallet) error {
	return updatePallet(b, p.Code, func(stored *models.Pallet) {
		stored.Name = p.Name
		stored.PhotoURL = p.PhotoURL
		stored.PhotoURL2 = p.PhotoURL2
		stored.ShipmentID = p.ShipmentID
	})
}

func (b *Backend) DeletePallet(ctx context.Context, code string) error {
	return mutate(b, keyPallets, func(items []models.Pallet) ([]models.Pallet, error) {
		for i := range items {
			if items[i].Code == code {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, store.ErrNotFound
	})
}

func (b *Backend) SetPalletShipment(ctx context.Context, code string, shipmentID *int64) error {
	return updatePallet(b, code, func(stored *models.Pallet) {
		stored.ShipmentID = shipmentID
	})
}
