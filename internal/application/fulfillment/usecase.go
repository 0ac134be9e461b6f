package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/sportstore-backend/internal/application/dto"
	"github.com/jhoicas/sportstore-backend/internal/application/events"
	"github.com/jhoicas/sportstore-backend/internal/domain"
	"github.com/jhoicas/sportstore-backend/internal/domain/entity"
	"github.com/jhoicas/sportstore-backend/internal/domain/repository"
	"github.com/jhoicas/sportstore-backend/internal/domain/valueobject"
	"github.com/jhoicas/sportstore-backend/pkg/logger"
)

// FulfillOrderUseCase convierte una lista de líneas solicitadas en una orden
// confirmada con sus débitos de stock, todo dentro de una sola transacción.
//
// Máquina de estados por intento: Validating -> Committing -> Finalized, o
// Aborted desde cualquiera de las dos fases sin efectos persistidos.
type FulfillOrderUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	orderRepo   repository.OrderRepository
	ledger      StockLedger
	publisher   events.Publisher
	log         *logger.Logger
}

// NewFulfillOrderUseCase construye el caso de uso.
func NewFulfillOrderUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	orderRepo repository.OrderRepository,
	ledger StockLedger,
	publisher events.Publisher,
	log *logger.Logger,
) *FulfillOrderUseCase {
	return &FulfillOrderUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		movRepo:     movRepo,
		orderRepo:   orderRepo,
		ledger:      ledger,
		publisher:   publisher,
		log:         log,
	}
}

// Fulfill crea y finaliza una orden para el vendedor indicado.
//
// Fase de validación (solo lectura): valida el documento del cliente y revisa
// todas las líneas antes de escribir nada; la orden es todo-o-nada sobre la
// lista completa, no línea por línea.
//
// Fase de commit: dentro de la transacción se vuelve a bloquear cada producto
// (SELECT FOR UPDATE) y se recalcula la disponibilidad; si ya no alcanza, la
// orden entera se aborta con ConcurrencyConflictError. Por cada línea se
// captura el precio vigente, se crea el ítem y se asienta la salida de stock
// con referencia a la orden. Cualquier error revierte todos los escritos.
func (uc *FulfillOrderUseCase) Fulfill(ctx context.Context, sellerID string, in dto.FulfillOrderInput) (*dto.OrderResponse, error) {
	if sellerID == "" || in.CustomerName == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	document, err := valueobject.NewDocument(in.CustomerDocument)
	if err != nil {
		return nil, err
	}

	// Fase de validación: resolver cada producto y verificar disponibilidad,
	// sin escribir nada todavía.
	productNames := make(map[string]string, len(in.Items))
	for _, line := range in.Items {
		if line.ProductID == "" || line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: cada línea requiere producto y cantidad positiva", domain.ErrInvalidInput)
		}
		product, err := uc.productRepo.GetActiveByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.ProductID)
		}
		available, err := uc.movRepo.SumByProduct(line.ProductID)
		if err != nil {
			return nil, err
		}
		if available < line.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Available: available,
				Requested: line.Quantity,
			}
		}
		productNames[product.ID] = product.Name
	}

	now := time.Now().UTC()
	order := &entity.Order{
		ID:               uuid.New().String(),
		CustomerDocument: document,
		CustomerName:     in.CustomerName,
		SellerID:         sellerID,
		Status:           entity.OrderStatusPending,
		Total:            valueobject.Zero,
		CreatedAt:        now,
	}
	reference := fmt.Sprintf("PEDIDO-%s", order.ID)

	// Fase de commit: unidad de trabajo atómica.
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.OrderRepository,
	) error {
		total := valueobject.Zero
		for _, line := range in.Items {
			// Bloquea la fila del producto: serializa lectura de disponibilidad
			// y débito frente a otras órdenes sobre el mismo producto.
			product, err := productRepo.GetActiveForUpdate(line.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.ProductID)
			}

			// Recalcular la disponibilidad dentro de la transacción: si cambió
			// desde la fase de validación, se aborta la orden completa.
			available, err := movRepo.SumByProduct(line.ProductID)
			if err != nil {
				return err
			}
			if available < line.Quantity {
				return &domain.ConcurrencyConflictError{
					ProductID: line.ProductID,
					Available: available,
					Requested: line.Quantity,
				}
			}

			// Precio capturado al momento de la orden, desacoplado de cambios
			// posteriores del catálogo.
			item := &entity.OrderItem{
				ID:        uuid.New().String(),
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			}
			subtotal, err := item.Subtotal()
			if err != nil {
				return err
			}
			total, err = total.Add(subtotal)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, item)

			if _, err := uc.ledger.RegisterExitInTx(
				movRepo, product, line.Quantity, sellerID, now,
				reference, fmt.Sprintf("Salida automática de la orden %s", reference),
			); err != nil {
				return err
			}
		}

		order.Total = total
		order.Status = entity.OrderStatusFinalized
		finalizedAt := now
		order.FinalizedAt = &finalizedAt

		if err := orderRepo.Create(order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := orderRepo.CreateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publishOrderCreated(ctx, order)
	return uc.toResponse(order, productNames), nil
}

// GetOrder obtiene una orden por ID con sus ítems.
func (uc *FulfillOrderUseCase) GetOrder(ctx context.Context, id string) (*dto.OrderResponse, error) {
	order, err := uc.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.orderRepo.GetItemsByOrderID(id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return uc.toResponse(order, uc.namesFor(items)), nil
}

// ListOrders lista las órdenes con sus ítems, más reciente primero.
func (uc *FulfillOrderUseCase) ListOrders(ctx context.Context) ([]dto.OrderResponse, error) {
	orders, err := uc.orderRepo.List()
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		items, err := uc.orderRepo.GetItemsByOrderID(order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
		out = append(out, *uc.toResponse(order, uc.namesFor(items)))
	}
	return out, nil
}

// namesFor resuelve los nombres de producto de un conjunto de ítems
// (incluye productos ya inactivos: la orden es histórica).
func (uc *FulfillOrderUseCase) namesFor(items []*entity.OrderItem) map[string]string {
	names := make(map[string]string, len(items))
	for _, item := range items {
		if _, ok := names[item.ProductID]; ok {
			continue
		}
		product, err := uc.productRepo.GetByID(item.ProductID)
		if err == nil && product != nil {
			names[item.ProductID] = product.Name
		}
	}
	return names
}

// publishOrderCreated emite pedidos.criado best-effort después del commit;
// una falla del bus jamás afecta el resultado de la orden.
func (uc *FulfillOrderUseCase) publishOrderCreated(ctx context.Context, order *entity.Order) {
	if uc.publisher == nil {
		return
	}
	items := make([]events.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, events.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Amount(),
		})
	}
	evt := events.NewOrderCreated(events.OrderCreatedData{
		OrderID:          fmt.Sprintf("PEDIDO-%s", order.ID),
		CustomerDocument: order.CustomerDocument.Digits(),
		CustomerName:     order.CustomerName,
		Seller:           order.SellerID,
		Items:            items,
		Total:            order.Total.Amount(),
	})
	if err := uc.publisher.Publish(ctx, events.TopicOrderCreated, evt); err != nil {
		uc.log.Warn().Err(err).Str("order_id", order.ID).Msg("publicar evento de orden creada")
	}
}

func (uc *FulfillOrderUseCase) toResponse(order *entity.Order, productNames map[string]string) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:                order.ID,
		CustomerDocument:  order.CustomerDocument.Digits(),
		DocumentFormatted: order.CustomerDocument.Formatted(),
		CustomerName:      order.CustomerName,
		SellerID:          order.SellerID,
		Status:            order.Status,
		Total:             order.Total.Amount(),
		TotalFormatted:    order.Total.FormatBRL(),
		CreatedAt:         order.CreatedAt,
		FinalizedAt:       order.FinalizedAt,
		Items:             make([]dto.OrderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		subtotal := item.UnitPrice.Amount().Mul(decimal.NewFromInt(int64(item.Quantity)))
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: productNames[item.ProductID],
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.Amount(),
			Subtotal:    subtotal,
		})
	}
	return resp
}
