package fulfillment

import (
	"context"
	"time"

	"github.com/jhoicas/sportstore-backend/internal/domain/entity"
	"github.com/jhoicas/sportstore-backend/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es la unidad de trabajo de la orden: o se
// confirman todos los escritos (orden, ítems y débitos de stock) o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
	) error) error
}

// StockLedger puerto hacia el libro de stock dentro de la transacción del
// caller. Si retorna error, el caller hace rollback de la orden completa.
type StockLedger interface {
	RegisterExitInTx(
		movRepo repository.StockMovementRepository,
		product *entity.Product,
		quantity int,
		userID string,
		now time.Time,
		reference, notes string,
	) (*entity.StockMovement, error)
}
