package postgres

import (
	"context"

	"depo-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const shipmentColumns = `id, code, name_or_plate, created_by, created_at, photo_url`

func scanShipment(row pgx.Row) (*models.Shipment, error) {
	var s models.Shipment
	if err := row.Scan(&s.ID, &s.Code, &s.NameOrPlate, &s.CreatedBy, &s.CreatedAt, &s.PhotoURL); err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (b *Backend) ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, error) {
	var w where
	if f.CreatedBy != "" {
		w.add("created_by = $%d", f.CreatedBy)
	}
	if f.Search != "" {
		w.add("(code ILIKE '%%' || $%[1]d || '%%' OR name_or_plate ILIKE '%%' || $%[1]d || '%%')", f.Search)
	}

	rows, err := b.DB.Query(ctx,
		`SELECT `+shipmentColumns+` FROM shipments`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var shipments []*models.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, s)
	}
	return shipments, rows.Err()
}

func (b *Backend) GetShipment(ctx context.Context, code string) (*models.Shipment, error) {
	return scanShipment(b.DB.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE code = $1`, code))
}

func (b *Backend) GetShipmentByID(ctx context.Context, id int64) (*models.Shipment, error) {
	return scanShipment(b.DB.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id))
}

func (b *Backend) InsertShipment(ctx context.Context, s *models.Shipment) error {
	err := b.DB.QueryRow(ctx,
		`INSERT INTO shipments (code, name_or_plate, created_by, created_at, photo_url)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		s.Code, s.NameOrPlate, s.CreatedBy, s.CreatedAt, s.PhotoURL,
	).Scan(&s.ID)
	return mapErr(err)
}

func (b *Backend) UpdateShipment(ctx context.Context, s *models.Shipment) error {
	return expectRow(b.DB.Exec(ctx,
		`UPDATE shipments SET name_or_plate = $1, photo_url = $2 WHERE code = $3`,
		s.NameOrPlate, s.PhotoURL, s.Code))
}

func (b *Backend) DeleteShipment(ctx context.Context, code string) error {
	return expectRow(b.DB.Exec(ctx, `DELETE FROM shipments WHERE code = $1`, code))
}
