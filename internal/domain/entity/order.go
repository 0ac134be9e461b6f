package entity

import (
	"time"

	"github.com/jhoicas/sportstore-backend/internal/domain/valueobject"
)

// Estados de una orden. Una orden nunca queda persistida en estado parcial:
// o se finaliza completa dentro de la transacción o se descarta entera.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusFinalized = "FINALIZED"
)

// Order orden de venta. Es dueña exclusiva de sus ítems: se crean y se
// destruyen juntos. Los movimientos de stock que la orden dispara pertenecen
// al libro y solo la referencian vía StockMovement.Reference.
type Order struct {
	ID               string
	CustomerDocument valueobject.Document // CPF/CNPJ del cliente
	CustomerName     string
	SellerID         string // vendedor que emite la orden
	Status           string
	Total            valueobject.Money
	CreatedAt        time.Time
	FinalizedAt      *time.Time // nil hasta finalizar
	Items            []*OrderItem
}

// OrderItem línea de la orden. El precio unitario se captura al momento de
// crear la orden y queda desacoplado de cambios posteriores en el catálogo.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int // entero positivo
	UnitPrice valueobject.Money
}

// Subtotal total de la línea: precio unitario x cantidad.
func (i *OrderItem) Subtotal() (valueobject.Money, error) {
	return i.UnitPrice.MulInt(i.Quantity)
}
