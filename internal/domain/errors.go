package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrProductNotFound         = errors.New("producto no encontrado o inactivo")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrAmountOutOfRange        = errors.New("monto fuera del rango permitido")
	ErrInvalidDocumentFormat   = errors.New("documento con formato inválido")
	ErrInvalidDocumentChecksum = errors.New("documento con dígitos de verificación inválidos")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrConcurrencyConflict     = errors.New("la disponibilidad cambió durante la transacción")
)

// InsufficientStockError indica que la cantidad solicitada supera la disponible.
// Compatible con errors.Is(err, ErrInsufficientStock).
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: disponible %d, solicitado %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ConcurrencyConflictError indica que la disponibilidad verificada en la fase de
// validación ya no alcanza al momento del commit. El caller puede reintentar la orden completa.
// Compatible con errors.Is(err, ErrConcurrencyConflict).
type ConcurrencyConflictError struct {
	ProductID string
	Available int
	Requested int
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("conflicto de concurrencia en producto %s: disponible %d, solicitado %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *ConcurrencyConflictError) Unwrap() error { return ErrConcurrencyConflict }
