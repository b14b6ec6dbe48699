package postgres

import (
	"context"

	"depo-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const palletColumns = `id, code, name, created_by, created_at, photo_url, photo_url_2, shipment_id`

func scanPallet(row pgx.Row) (*models.Pallet, error) {
	var p models.Pallet
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.CreatedBy, &p.CreatedAt,
		&p.PhotoURL, &p.PhotoURL2, &p.ShipmentID); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (b *Backend) ListPallets(ctx context.Context, f models.PalletFilter) ([]*models.Pallet, error) {
	var w where
	if f.CreatedBy != "" {
		w.add("created_by = $%d", f.CreatedBy)
	}
	if f.ShipmentID != nil {
		w.add("shipment_id = $%d", *f.ShipmentID)
	}
	if f.Unassigned {
		w.raw("shipment_id IS NULL")
	}
	if f.Search != "" {
		w.add("(code ILIKE '%%' || $%[1]d || '%%' OR name ILIKE '%%' || $%[1]d || '%%')", f.Search)
	}

	rows, err := b.DB.Query(ctx,
		`SELECT `+palletColumns+` FROM pallets`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var pallets []*models.Pallet
	for rows.Next() {
		p, err := scanPallet(rows)
		if err != nil {
			return nil, err
		}
		pallets = append(pallets, p)
	}
	return pallets, rows.Err()
}

func (b *Backend) GetPallet(ctx context.Context, code string) (*models.Pallet, error) {
	return scanPallet(b.DB.QueryRow(ctx, `SELECT `+palletColumns+` FROM pallets WHERE code = $1`, code))
}

func (b *Backend) GetPalletByID(ctx context.Context, id int64) (*models.Pallet, error) {
	return scanPallet(b.DB.QueryRow(ctx, `SELECT `+palletColumns+` FROM pallets WHERE id = $1`, id))
}

func (b *Backend) InsertPallet(ctx context.Context, p *models.Pallet) error {
	err := b.DB.QueryRow(ctx,
		`INSERT INTO pallets (code, name, created_by, created_at, photo_url, photo_url_2, shipment_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.Code, p.Name, p.CreatedBy, p.CreatedAt, p.PhotoURL, p.PhotoURL2, p.ShipmentID,
	).Scan(&p.ID)
	return mapErr(err)
}

func (b *Backend) UpdatePallet(ctx context.Context, p *models.Pallet) error {
	return expectRow(b.DB.Exec(ctx,
		`UPDATE pallets SET name = $1, photo_url = $2, photo_url_2 = $3, shipment_id = $4 WHERE code = $5`,
		p.Name, p.PhotoURL, p.PhotoURL2, p.ShipmentID, p.Code))
}

func (b *Backend) DeletePallet(ctx context.Context, code string) error {
	return expectRow(b.DB.Exec(ctx, `DELETE FROM pallets WHERE code = $1`, code))
}

func (b *Backend) SetPalletShipment(ctx context.Context, code string, shipmentID *int64) error {
	return expectRow(b.DB.Exec(ctx, `UPDATE pallets SET shipment_id = $1 WHERE code = $2`, shipmentID, code))
}
