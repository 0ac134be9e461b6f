package dto

import "time"

// RegisterEntryInput entrada para registrar un ingreso de stock (dirección IN).
type RegisterEntryInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference,omitempty"` // nota fiscal u otro documento de respaldo
	Notes     string `json:"notes,omitempty"`
}

// StockMovementResponse un asiento del libro de stock en respuestas.
type StockMovementResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Direction string    `json:"direction"`
	Reference string    `json:"reference,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
