package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/sportstore-backend/internal/domain/entity"
	"github.com/jhoicas/sportstore-backend/internal/domain/repository"
	"github.com/jhoicas/sportstore-backend/internal/domain/valueobject"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de órdenes. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, customer_document, customer_name, seller_id, status, total, created_at, finalized_at`

// Create persiste la cabecera de la orden.
func (r *OrderRepo) Create(o *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		o.ID, o.CustomerDocument.Digits(), o.CustomerName, o.SellerID,
		o.Status, o.Total.Amount(), o.CreatedAt, o.FinalizedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de la orden.
func (r *OrderRepo) CreateItem(i *entity.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(context.Background(), query,
		i.ID, i.OrderID, i.ProductID, i.Quantity, i.UnitPrice.Amount(),
	)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// GetByID obtiene una orden por ID sin sus ítems. Devuelve nil si no existe.
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	row := r.q.QueryRow(context.Background(), query, id)
	o, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetItemsByOrderID obtiene las líneas de una orden en orden de inserción.
func (r *OrderRepo) GetItemsByOrderID(orderID string) ([]*entity.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = $1`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	var out []*entity.OrderItem
	for rows.Next() {
		var (
			i     entity.OrderItem
			price decimal.Decimal
		)
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i.UnitPrice, err = valueobject.NewMoney(price); err != nil {
			return nil, fmt.Errorf("precio persistido inválido en ítem %s: %w", i.ID, err)
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

// List lista las órdenes sin ítems, más reciente primero.
func (r *OrderRepo) List() ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var out []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// scanOrder reconstruye la entidad desde una fila, revalidando los value objects.
func scanOrder(scan func(dest ...any) error) (*entity.Order, error) {
	var (
		o           entity.Order
		docDigits   string
		total       decimal.Decimal
		finalizedAt *time.Time
	)
	if err := scan(&o.ID, &docDigits, &o.CustomerName, &o.SellerID,
		&o.Status, &total, &o.CreatedAt, &finalizedAt); err != nil {
		return nil, err
	}
	var err error
	if o.CustomerDocument, err = valueobject.NewDocument(docDigits); err != nil {
		return nil, fmt.Errorf("documento persistido inválido en orden %s: %w", o.ID, err)
	}
	if o.Total, err = valueobject.NewMoney(total); err != nil {
		return nil, fmt.Errorf("total persistido inválido en orden %s: %w", o.ID, err)
	}
	o.FinalizedAt = finalizedAt
	return &o, nil
}
