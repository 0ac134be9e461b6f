package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Nombres de evento. Se usan también como topic del bus.
const (
	TopicOrderCreated = "pedidos.criado"
	TopicStockAdded   = "estoque.adicionado"
)

// Event sobre común de todos los eventos salientes. Los nombres de campo JSON
// (evento/timestamp/dados) son contrato de cable con los consumidores existentes.
type Event struct {
	Event     string    `json:"evento"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"dados"`
}

// Publisher puerto de publicación de eventos. La emisión es best-effort:
// el caller registra el error en logs y nunca lo propaga al resultado del
// caso de uso (una falla del bus no revierte una transacción ya confirmada).
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

// OrderCreatedData payload de pedidos.criado.
type OrderCreatedData struct {
	OrderID          string           `json:"pedidoId"`
	CustomerDocument string           `json:"clienteDocumento"`
	CustomerName     string           `json:"nomeCliente"`
	Seller           string           `json:"vendedor"`
	Items            []OrderItemData  `json:"itens"`
	Total            decimal.Decimal  `json:"valorTotal"`
}

// OrderItemData una línea dentro del evento de orden creada.
type OrderItemData struct {
	ProductID string          `json:"produtoId"`
	Quantity  int             `json:"quantidade"`
	UnitPrice decimal.Decimal `json:"precoUnitario"`
}

// NewOrderCreated construye el evento de orden creada.
func NewOrderCreated(data OrderCreatedData) Event {
	return Event{Event: TopicOrderCreated, Timestamp: time.Now().UTC(), Data: data}
}

// StockAddedData payload de estoque.adicionado.
type StockAddedData struct {
	ProductID string `json:"produtoId"`
	Quantity  int    `json:"quantidade"`
	Direction string `json:"tipoMovimentacao"`
	Reference string `json:"notaFiscal,omitempty"`
	Notes     string `json:"observacoes,omitempty"`
}

// NewStockAdded construye el evento de ingreso de stock.
func NewStockAdded(data StockAddedData) Event {
	return Event{Event: TopicStockAdded, Timestamp: time.Now().UTC(), Data: data}
}
