package models

import "time"

type Pallet struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	PhotoURL   string    `json:"photo_url"`
	PhotoURL2  string    `json:"photo_url_2,omitempty"`
	ShipmentID *int64    `json:"shipment_id,omitempty"`
}

type PalletWithBoxes struct {
	Pallet
	Boxes []*Box `json:"boxes"`
}

type PalletFilter struct {
	CreatedBy  string
	ShipmentID *int64
	Unassigned bool
	Search     string
}

type CreatePalletRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type UpdatePalletRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=120"`
}
