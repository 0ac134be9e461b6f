package entity

import "time"

// Direcciones de movimiento de stock. La cantidad se guarda siempre como
// magnitud positiva; el signo lo aporta la dirección.
const (
	DirectionIn  = "IN"  // entrada
	DirectionOut = "OUT" // salida
)

// StockMovement un asiento del libro de stock. El libro es append-only:
// los asientos se crean una vez y nunca se mutan ni se borran. La cantidad
// disponible de un producto es siempre la suma con signo de sus asientos,
// recalculada bajo demanda.
type StockMovement struct {
	ID        string
	ProductID string
	Quantity  int    // magnitud positiva
	Direction string // IN u OUT
	Reference string // documento de respaldo: nota fiscal, "PEDIDO-<id>", etc.
	Notes     string
	CreatedBy string // usuario que registró el movimiento
	CreatedAt time.Time
}

// Signed cantidad con signo según la dirección (IN positiva, OUT negativa).
func (m *StockMovement) Signed() int {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}
