package repository

import "github.com/jhoicas/sportstore-backend/internal/domain/entity"

// OrderRepository puerto de persistencia de órdenes y sus ítems.
type OrderRepository interface {
	Create(order *entity.Order) error
	CreateItem(item *entity.OrderItem) error
	// GetByID devuelve la orden o nil si no existe. No carga los ítems.
	GetByID(id string) (*entity.Order, error)
	GetItemsByOrderID(orderID string) ([]*entity.OrderItem, error)
	// List órdenes más recientes primero. No carga los ítems.
	List() ([]*entity.Order, error)
}
