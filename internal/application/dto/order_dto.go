package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// FulfillOrderInput entrada del caso de uso de creación de orden.
type FulfillOrderInput struct {
	CustomerDocument string           `json:"customer_document"` // CPF/CNPJ, con o sin puntuación
	CustomerName     string           `json:"customer_name"`
	Items            []OrderLineInput `json:"items"`
}

// OrderLineInput una línea solicitada: producto y cantidad.
type OrderLineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderResponse orden con sus ítems.
type OrderResponse struct {
	ID                string              `json:"id"`
	CustomerDocument  string              `json:"customer_document"`        // dígitos canónicos
	DocumentFormatted string              `json:"document_formatted"`       // con puntuación
	CustomerName      string              `json:"customer_name"`
	SellerID          string              `json:"seller_id"`
	Status            string              `json:"status"`
	Total             decimal.Decimal     `json:"total"`
	TotalFormatted    string              `json:"total_formatted"` // "R$ 1.234,56"
	CreatedAt         time.Time           `json:"created_at"`
	FinalizedAt       *time.Time          `json:"finalized_at,omitempty"`
	Items             []OrderItemResponse `json:"items"`
}

// OrderItemResponse una línea de la orden en respuestas.
type OrderItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}
