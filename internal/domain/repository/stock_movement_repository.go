package repository

import "github.com/jhoicas/sportstore-backend/internal/domain/entity"

// StockMovementRepository puerto del libro de stock. Solo admite inserciones
// y lecturas: los asientos nunca se actualizan ni se eliminan.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	// SumByProduct suma con signo de los asientos del producto
	// (entradas menos salidas). Nunca se guarda un contador: la cifra se
	// recalcula siempre desde el historial.
	SumByProduct(productID string) (int, error)
	// ListByProduct historial de un producto, más reciente primero.
	ListByProduct(productID string) ([]*entity.StockMovement, error)
	// ListAll historial completo, más reciente primero.
	ListAll() ([]*entity.StockMovement, error)
}
