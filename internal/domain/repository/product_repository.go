package repository

import "github.com/jhoicas/sportstore-backend/internal/domain/entity"

// ProductRepository puerto de persistencia del catálogo de productos.
// El core lo consume solo en lectura; Create existe para seeding y pruebas.
type ProductRepository interface {
	Create(product *entity.Product) error
	// GetByID devuelve el producto o nil si no existe (activo o no).
	GetByID(id string) (*entity.Product, error)
	// GetActiveByID devuelve el producto solo si existe y está activo; nil si no.
	GetActiveByID(id string) (*entity.Product, error)
	// GetActiveForUpdate igual que GetActiveByID pero bloqueando la fila
	// (SELECT FOR UPDATE) dentro de la transacción en curso. Serializa por
	// producto la lectura de disponibilidad y el débito del commit.
	GetActiveForUpdate(id string) (*entity.Product, error)
}
