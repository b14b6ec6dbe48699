package postgres

import (
	"context"

	"depo-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const boxColumns = `id, code, name, status, department_id, created_by, created_at,
	photo_url, photo_url_2, pallet_id, is_direct_shipment, shipment_id`

func scanBox(row pgx.Row) (*models.Box, error) {
	var box models.Box
	err := row.Scan(&box.ID, &box.Code, &box.Name, &box.Status, &box.DepartmentID,
		&box.CreatedBy, &box.CreatedAt, &box.PhotoURL, &box.PhotoURL2,
		&box.PalletID, &box.IsDirectShipment, &box.ShipmentID)
	if err != nil {
		return nil, err
	}
	box.Lines = []models.BoxLine{}
	return &box, nil
}

func (b *Backend) ListBoxes(ctx context.Context, f models.BoxFilter) ([]*models.Box, error) {
	var w where
	if f.CreatedBy != "" {
		w.add("created_by = $%d", f.CreatedBy)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if f.PalletID != nil {
		w.add("pallet_id = $%d", *f.PalletID)
	}
	if f.ShipmentID != nil {
		w.add("shipment_id = $%d", *f.ShipmentID)
	}
	if f.Unpalletized {
		w.raw("pallet_id IS NULL")
	}
	if f.Search != "" {
		w.add("(code ILIKE '%%' || $%[1]d || '%%' OR name ILIKE '%%' || $%[1]d || '%%')", f.Search)
	}

	rows, err := b.DB.Query(ctx,
		`SELECT `+boxColumns+` FROM boxes`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var boxes []*models.Box
	for rows.Next() {
		box, err := scanBox(rows)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, box)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return boxes, b.loadLines(ctx, boxes)
}

// loadLines attaches the lines of all boxes with one query.
func (b *Backend) loadLines(ctx context.Context, boxes []*models.Box) error {
	if len(boxes) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Box, len(boxes))
	ids := make([]int64, 0, len(boxes))
	for _, box := range boxes {
		byID[box.ID] = box
		ids = append(ids, box.ID)
	}

	rows, err := b.DB.Query(ctx,
		`SELECT id, box_id, product_name, qty, kind FROM box_lines
		 WHERE box_id = ANY($1) ORDER BY box_id, position, id`, ids)
	if err != nil {
		return mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.BoxLine
		var boxID int64
		if err := rows.Scan(&l.ID, &boxID, &l.ProductName, &l.Qty, &l.Kind); err != nil {
			return err
		}
		if box := byID[boxID]; box != nil {
			box.Lines = append(box.Lines, l)
		}
	}
	return rows.Err()
}

func (b *Backend) GetBox(ctx context.Context, code string) (*models.Box, error) {
	box, err := scanBox(b.DB.QueryRow(ctx, `SELECT `+boxColumns+` FROM boxes WHERE code = $1`, code))
	if err != nil {
		return nil, mapErr(err)
	}
	return box, b.loadLines(ctx, []*models.Box{box})
}

func (b *Backend) InsertBox(ctx context.Context, box *models.Box) error {
	return pgx.BeginFunc(ctx, b.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO boxes (code, name, status, department_id, created_by, created_at,
				photo_url, photo_url_2, pallet_id, is_direct_shipment, shipment_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			box.Code, box.Name, box.Status, box.DepartmentID, box.CreatedBy, box.CreatedAt,
			box.PhotoURL, box.PhotoURL2, box.PalletID, box.IsDirectShipment, box.ShipmentID,
		).Scan(&box.ID)
		if err != nil {
			return mapErr(err)
		}
		return writeLines(ctx, tx, box)
	})
}

// writeLines makes the stored lines of box equal to box.Lines: lines with an
// ID are updated in place, new ones inserted, missing ones deleted.
func writeLines(ctx context.Context, tx pgx.Tx, box *models.Box) error {
	keep := make([]int64, 0, len(box.Lines))
	for _, l := range box.Lines {
		if l.ID != 0 {
			keep = append(keep, l.ID)
		}
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM box_lines WHERE box_id = $1 AND NOT (id = ANY($2))`, box.ID, keep); err != nil {
		return mapErr(err)
	}

	for i := range box.Lines {
		l := &box.Lines[i]
		if l.ID != 0 {
			tag, err := tx.Exec(ctx,
				`UPDATE box_lines SET position = $1, product_name = $2, qty = $3, kind = $4
				 WHERE id = $5 AND box_id = $6`,
				i, l.ProductName, l.Qty, l.Kind, l.ID, box.ID)
			if err := expectRow(tag, err); err != nil {
				return err
			}
			continue
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO box_lines (box_id, position, product_name, qty, kind)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			box.ID, i, l.ProductName, l.Qty, l.Kind,
		).Scan(&l.ID)
		if err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (b *Backend) UpdateBox(ctx context.Context, box *models.Box) error {
	return pgx.BeginFunc(ctx, b.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE boxes SET name = $1, status = $2, department_id = $3, photo_url = $4,
				photo_url_2 = $5, pallet_id = $6, is_direct_shipment = $7, shipment_id = $8
			 WHERE code = $9 RETURNING id`,
			box.Name, box.Status, box.DepartmentID, box.PhotoURL, box.PhotoURL2,
			box.PalletID, box.IsDirectShipment, box.ShipmentID, box.Code,
		).Scan(&box.ID)
		if err != nil {
			return mapErr(err)
		}
		return writeLines(ctx, tx, box)
	})
}

func (b *Backend) DeleteBox(ctx context.Context, code string) error {
	return expectRow(b.DB.Exec(ctx, `DELETE FROM boxes WHERE code = $1`, code))
}

func (b *Backend) SetBoxPallet(ctx context.Context, code string, palletID *int64) error {
	return expectRow(b.DB.Exec(ctx, `UPDATE boxes SET pallet_id = $1 WHERE code = $2`, palletID, code))
}

func (b *Backend) SetBoxShipment(ctx context.Context, code string, direct bool, shipmentID *int64) error {
	return expectRow(b.DB.Exec(ctx,
		`UPDATE boxes SET is_direct_shipment = $1, shipment_id = $2 WHERE code = $3`, direct, shipmentID, code))
}
