package local

import (
	"context"
	"sort"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
)

func (b *Backend) ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, error) {
	items, err := load[models.Shipment](b, keyShipments)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Shipment, 0, len(items))
	for i := range items {
		s := &items[i]
		if f.CreatedBy != "" && s.CreatedBy != f.CreatedBy {
			continue
		}
		if f.Search != "" && !containsFold(s.Code, f.Search) && !containsFold(s.NameOrPlate, f.Search) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (b *Backend) findShipment(match func(*models.Shipment) bool) (*models.Shipment, error) {
	items, err := load[models.Shipment](b, keyShipments)
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

func (b *Backend) GetShipment(ctx context.Context, code string) (*models.Shipment, error) {
	return b.findShipment(func(s *models.Shipment) bool { return s.Code == code })
}

func (b *Backend) GetShipmentByID(ctx context.Context, id int64) (*models.Shipment, error) {
	return b.findShipment(func(s *models.Shipment) bool { return s.ID == id })
}

func (b *Backend) InsertShipment(ctx context.Context, s *models.Shipment) error {
	return mutate(b, keyShipments, func(items []models.Shipment) ([]models.Shipment, error) {
		var maxID int64
		for _, it := range items {
			if it.Code == s.Code {
				return nil, store.ErrConflict
			}
			if it.ID > maxID {
				maxID = it.ID
			}
		}
		s.ID = maxID + 1
		return append(items, *s), nil
	})
}

func (b *Backend) UpdateShipment(ctx context.Context, s *models.Shipment) error {
	return mutate(b, keyShipments, func(items []models.Shipment) ([]models.Shipment, error) {
		for i := range items {
			if items[i].Code == s.Code {
				items[i].NameOrPlate = s.NameOrPlate
				items[i].PhotoURL = s.PhotoURL
				return items, nil
			}
		}
		return nil, store.ErrNotFound
	})
}

func (b *Backend) DeleteShipment(ctx context.Context, code string) error {
	return mutate(b, keyShipments, func(items []models.Shipment) ([]models.Shipment, error) {
		for i := range items {
			if items[i].Code == code {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, store.ErrNotFound
	})
}
