package models

import "time"

const (
	BoxStatusDraft  = "draft"
	BoxStatusSealed = "sealed"
)

type Box struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Status           string    `json:"status"`
	DepartmentID     *int64    `json:"department_id,omitempty"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	PhotoURL         string    `json:"photo_url"`
	PhotoURL2        string    `json:"photo_url_2"`
	PalletID         *int64    `json:"pallet_id,omitempty"`
	IsDirectShipment bool      `json:"is_direct_shipment"`
	ShipmentID       *int64    `json:"shipment_id,omitempty"`
	Lines            []BoxLine `json:"lines"`
}

// BoxLine is one product row inside a box. Lines keep insertion order.
type BoxLine struct {
	ID          int64  `json:"id"`
	ProductName string `json:"product_name"`
	Qty         int    `json:"qty"`
	Kind        string `json:"kind,omitempty"`
}

// TotalQty sums the quantities of all lines
func (b *Box) TotalQty() int {
	total := 0
	for _, l := range b.Lines {
		total += l.Qty
	}
	return total
}

type BoxFilter struct {
	CreatedBy    string
	Status       string
	PalletID     *int64
	ShipmentID   *int64
	Unpalletized bool
	Search       string
}

type BoxLineInput struct {
	ProductName string `json:"product_name" validate:"required,max=200"`
	Qty         int    `json:"qty" validate:"gte=1"`
	Kind        string `json:"kind" validate:"max=50"`
}

type CreateBoxRequest struct {
	Name         string         `json:"name" validate:"required,max=120"`
	DepartmentID *int64         `json:"department_id"`
	Lines        []BoxLineInput `json:"lines" validate:"dive"`
}

// UpdateBoxRequest is a patch: nil fields are left untouched.
type UpdateBoxRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=120"`
	DepartmentID *int64  `json:"department_id"`
}

// AssignParentRequest links a box to a pallet or directly to a shipment; the
// code prefix decides which.
type AssignParentRequest struct {
	ParentCode string `json:"parent_code" validate:"required,max=32"`
}
