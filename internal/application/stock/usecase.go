package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/sportstore-backend/internal/application/dto"
	"github.com/jhoicas/sportstore-backend/internal/application/events"
	"github.com/jhoicas/sportstore-backend/internal/domain"
	"github.com/jhoicas/sportstore-backend/internal/domain/entity"
	"github.com/jhoicas/sportstore-backend/internal/domain/repository"
	"github.com/jhoicas/sportstore-backend/pkg/logger"
)

// StockUseCase opera el libro de stock: registra ingresos, deriva la cantidad
// disponible y lista el historial. El libro es un registro histórico puro:
// nunca rechaza un asiento por dejar el saldo en negativo; esa verificación
// es responsabilidad del caller (el caso de uso de órdenes).
type StockUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	publisher   events.Publisher
	log         *logger.Logger
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	publisher events.Publisher,
	log *logger.Logger,
) *StockUseCase {
	return &StockUseCase{
		productRepo: productRepo,
		movRepo:     movRepo,
		publisher:   publisher,
		log:         log,
	}
}

// RegisterEntry registra un ingreso de stock (dirección IN).
// Falla solo si la cantidad no es positiva o el producto no existe o está inactivo.
func (uc *StockUseCase) RegisterEntry(ctx context.Context, userID string, in dto.RegisterEntryInput) (*dto.StockMovementResponse, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}
	product, err := uc.productRepo.GetActiveByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	mov := &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Direction: entity.DirectionIn,
		Reference: in.Reference,
		Notes:     in.Notes,
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.movRepo.Create(mov); err != nil {
		return nil, err
	}

	uc.publishStockAdded(ctx, mov)
	return toMovementResponse(mov), nil
}

// AvailableQuantity cantidad disponible del producto: suma de entradas menos
// salidas, recalculada siempre desde el libro (nunca un contador almacenado).
func (uc *StockUseCase) AvailableQuantity(ctx context.Context, productID string) (int, error) {
	if productID == "" {
		return 0, domain.ErrInvalidInput
	}
	return uc.movRepo.SumByProduct(productID)
}

// History historial de movimientos, más reciente primero.
// productID vacío devuelve el historial completo.
func (uc *StockUseCase) History(ctx context.Context, productID string) ([]dto.StockMovementResponse, error) {
	var (
		movs []*entity.StockMovement
		err  error
	)
	if productID == "" {
		movs, err = uc.movRepo.ListAll()
	} else {
		movs, err = uc.movRepo.ListByProduct(productID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, *toMovementResponse(m))
	}
	return out, nil
}

// RegisterExitInTx registra una salida (OUT) usando el repositorio de la
// transacción del caller, para que el débito comparta la unidad de trabajo de
// la orden. El libro no verifica saldo: la suficiencia la garantizó el caller
// con la fila del producto bloqueada.
func (uc *StockUseCase) RegisterExitInTx(
	movRepo repository.StockMovementRepository,
	product *entity.Product,
	quantity int,
	userID string,
	now time.Time,
	reference, notes string,
) (*entity.StockMovement, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if product == nil || !product.Active {
		return nil, domain.ErrProductNotFound
	}
	mov := &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Quantity:  quantity,
		Direction: entity.DirectionOut,
		Reference: reference,
		Notes:     notes,
		CreatedBy: userID,
		CreatedAt: now,
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// publishStockAdded emite estoque.adicionado best-effort; una falla del bus
// solo se registra en logs.
func (uc *StockUseCase) publishStockAdded(ctx context.Context, mov *entity.StockMovement) {
	if uc.publisher == nil {
		return
	}
	evt := events.NewStockAdded(events.StockAddedData{
		ProductID: mov.ProductID,
		Quantity:  mov.Quantity,
		Direction: mov.Direction,
		Reference: mov.Reference,
		Notes:     mov.Notes,
	})
	if err := uc.publisher.Publish(ctx, events.TopicStockAdded, evt); err != nil {
		uc.log.Warn().Err(err).Str("product_id", mov.ProductID).Msg("publicar evento de ingreso de stock")
	}
}

func toMovementResponse(m *entity.StockMovement) *dto.StockMovementResponse {
	return &dto.StockMovementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Direction: m.Direction,
		Reference: m.Reference,
		Notes:     m.Notes,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}
