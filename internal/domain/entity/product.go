package entity

import (
	"time"

	"github.com/jhoicas/sportstore-backend/internal/domain/valueobject"
)

// Product producto del catálogo. El precio se modela con el value object Money;
// el stock nunca se guarda aquí: siempre se deriva del libro de movimientos.
type Product struct {
	ID          string
	SKU         string // código único del producto
	Name        string
	Description string
	Price       valueobject.Money // precio de venta vigente
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
