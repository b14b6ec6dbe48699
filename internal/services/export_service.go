package services

import (
	"context"
	"fmt"

	"depo-backend/internal/models"
	"depo-backend/internal/repositories"
	"depo-backend/internal/timeutil"

	"github.com/xuri/excelize/v2"
)

const manifestSheet = "Manifest"

// ExportService builds the loading manifest of a shipment as an XLSX workbook.
type ExportService struct {
	Shipments *repositories.ShipmentRepository
	Boxes     *repositories.BoxRepository
}

func NewExportService(shipments *repositories.ShipmentRepository, boxes *repositories.BoxRepository) *ExportService {
	return &ExportService{Shipments: shipments, Boxes: boxes}
}

type manifestRow struct {
	palletCode, palletName string
	box                    *models.Box
	line                   *models.BoxLine
}

// ShipmentManifest returns the workbook bytes and a download filename. Every
// box line is one row; empty boxes get a row without product.
func (s *ExportService) ShipmentManifest(ctx context.Context, code string) ([]byte, string, error) {
	shipment, err := s.Shipments.GetByCodeWithChildren(ctx, code)
	if err != nil {
		return nil, "", err
	}

	var rows []manifestRow
	for _, p := range shipment.Pallets {
		boxes, err := s.Boxes.Store.ListBoxes(ctx, models.BoxFilter{PalletID: &p.ID})
		if err != nil {
			return nil, "", err
		}
		rows = appendBoxRows(rows, p.Code, p.Name, boxes)
	}
	rows = appendBoxRows(rows, "-", "Direct", shipment.DirectBoxes)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", manifestSheet); err != nil {
		return nil, "", err
	}

	f.SetCellValue(manifestSheet, "A1", "Shipment")
	f.SetCellValue(manifestSheet, "B1", shipment.Code)
	f.SetCellValue(manifestSheet, "A2", "Name / plate")
	f.SetCellValue(manifestSheet, "B2", shipment.NameOrPlate)
	f.SetCellValue(manifestSheet, "A3", "Created")
	f.SetCellValue(manifestSheet, "B3", fmt.Sprintf("%s by %s",
		timeutil.FormatTRT(shipment.CreatedAt, timeutil.DisplayLayout), shipment.CreatedBy))

	headings := []string{"Pallet", "Pallet name", "Box", "Box name", "Status", "Product", "Qty", "Kind"}
	const headerRow = 5
	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(manifestSheet, cell, h)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E0E0"}},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headings), headerRow)
		f.SetCellStyle(manifestSheet, "A5", last, bold)
	}

	total := 0
	for i, r := range rows {
		values := []any{r.palletCode, r.palletName, r.box.Code, r.box.Name, r.box.Status, "", "", ""}
		if r.line != nil {
			values[5], values[6], values[7] = r.line.ProductName, r.line.Qty, r.line.Kind
			total += r.line.Qty
		}
		for col, v := range values {
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, headerRow+1+i)
			f.SetCellValue(manifestSheet, cell, v)
		}
	}
	totalRow := headerRow + 1 + len(rows)
	f.SetCellValue(manifestSheet, fmt.Sprintf("F%d", totalRow), "Total")
	f.SetCellValue(manifestSheet, fmt.Sprintf("G%d", totalRow), total)
	f.SetColWidth(manifestSheet, "A", "H", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("manifest-%s.xlsx", shipment.Code), nil
}

func appendBoxRows(rows []manifestRow, palletCode, palletName string, boxes []*models.Box) []manifestRow {
	for _, b := range boxes {
		if len(b.Lines) == 0 {
			rows = append(rows, manifestRow{palletCode: palletCode, palletName: palletName, box: b})
			continue
		}
		for i := range b.Lines {
			rows = append(rows, manifestRow{palletCode: palletCode, palletName: palletName, box: b, line: &b.Lines[i]})
		}
	}
	return rows
}
