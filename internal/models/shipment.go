package models

import "time"

type Shipment struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	NameOrPlate string    `json:"name_or_plate"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	PhotoURL    string    `json:"photo_url,omitempty"`
}

// ShipmentWithPallets is a shipment with its directly owned children: pallets
// and boxes flagged as direct-to-shipment.
type ShipmentWithPallets struct {
	Shipment
	Pallets     []*Pallet `json:"pallets"`
	DirectBoxes []*Box    `json:"direct_boxes"`
}

type ShipmentFilter struct {
	CreatedBy string
	Search    string
}

type CreateShipmentRequest struct {
	NameOrPlate string `json:"name_or_plate" validate:"required,max=120"`
}

type UpdateShipmentRequest struct {
	NameOrPlate *string `json:"name_or_plate" validate:"omitempty,min=1,max=120"`
}
