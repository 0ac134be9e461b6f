package fulfillment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/sportstore-backend/internal/application/dto"
	"github.com/jhoicas/sportstore-backend/internal/application/events"
	"github.com/jhoicas/sportstore-backend/internal/application/fulfillment"
	"github.com/jhoicas/sportstore-backend/internal/application/stock"
	"github.com/jhoicas/sportstore-backend/internal/domain"
	"github.com/jhoicas/sportstore-backend/internal/domain/entity"
	"github.com/jhoicas/sportstore-backend/internal/domain/repository"
	"github.com/jhoicas/sportstore-backend/internal/domain/valueobject"
	"github.com/jhoicas/sportstore-backend/pkg/logger"
)

const validCPF = "529.982.247-25"

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memProductRepo struct {
	mu       sync.Mutex
	products map[string]*entity.Product
	// onForUpdate permite simular cambios concurrentes (producto desactivado
	// entre la validación y el commit, por ejemplo).
	onForUpdate func(id string)
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[string]*entity.Product)}
}

func (r *memProductRepo) Create(p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *memProductRepo) GetActiveByID(id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok && p.Active {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *memProductRepo) GetActiveForUpdate(id string) (*entity.Product, error) {
	if r.onForUpdate != nil {
		r.onForUpdate(id)
	}
	return r.GetActiveByID(id)
}

func (r *memProductRepo) deactivate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Active = false
	}
}

type memMovementRepo struct {
	mu   sync.Mutex
	movs []*entity.StockMovement
}

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.movs = append(r.movs, &cp)
	return nil
}

func (r *memMovementRepo) SumByProduct(productID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int
	for _, m := range r.movs {
		if m.ProductID == productID {
			sum += m.Signed()
		}
	}
	return sum, nil
}

func (r *memMovementRepo) ListByProduct(productID string) ([]*entity.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.StockMovement
	for i := len(r.movs) - 1; i >= 0; i-- {
		if r.movs[i].ProductID == productID {
			cp := *r.movs[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListAll() ([]*entity.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.StockMovement, 0, len(r.movs))
	for i := len(r.movs) - 1; i >= 0; i-- {
		cp := *r.movs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memMovementRepo) snapshot() []*entity.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.StockMovement(nil), r.movs...)
}

func (r *memMovementRepo) restore(snap []*entity.StockMovement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movs = snap
}

type memOrderRepo struct {
	mu         sync.Mutex
	orders     []*entity.Order
	items      map[string][]*entity.OrderItem
	failCreate error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{items: make(map[string][]*entity.OrderItem)}
}

func (r *memOrderRepo) Create(order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	cp := *order
	cp.Items = nil
	r.orders = append(r.orders, &cp)
	return nil
}

func (r *memOrderRepo) CreateItem(item *entity.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.OrderID] = append(r.items[item.OrderID], &cp)
	return nil
}

func (r *memOrderRepo) GetByID(id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memOrderRepo) GetItemsByOrderID(orderID string) ([]*entity.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items[orderID]
	out := make([]*entity.OrderItem, 0, len(items))
	for _, it := range items {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memOrderRepo) List() ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Order, 0, len(r.orders))
	for i := len(r.orders) - 1; i >= 0; i-- {
		cp := *r.orders[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func (r *memOrderRepo) snapshot() ([]*entity.Order, map[string][]*entity.OrderItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := append([]*entity.Order(nil), r.orders...)
	items := make(map[string][]*entity.OrderItem, len(r.items))
	for k, v := range r.items {
		items[k] = append([]*entity.OrderItem(nil), v...)
	}
	return orders, items
}

func (r *memOrderRepo) restore(orders []*entity.Order, items map[string][]*entity.OrderItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = orders
	r.items = items
}

// memTxRunner simula la unidad de trabajo: serializa las transacciones con un
// mutex (el equivalente del FOR UPDATE sobre la fila del producto) y, ante un
// error del callback, restaura los almacenes al estado previo.
type memTxRunner struct {
	mu       sync.Mutex
	movs     *memMovementRepo
	products *memProductRepo
	orders   *memOrderRepo
}

func (t *memTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	movSnap := t.movs.snapshot()
	orderSnap, itemSnap := t.orders.snapshot()
	if err := fn(t.movs, t.products, t.orders); err != nil {
		t.movs.restore(movSnap)
		t.orders.restore(orderSnap, itemSnap)
		return err
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	uc        *fulfillment.FulfillOrderUseCase
	products  *memProductRepo
	movs      *memMovementRepo
	orders    *memOrderRepo
	publisher *recordingPublisher
}

func newFixture() *fixture {
	products := newMemProductRepo()
	movs := &memMovementRepo{}
	orders := newMemOrderRepo()
	publisher := &recordingPublisher{}
	txRunner := &memTxRunner{movs: movs, products: products, orders: orders}
	log := logger.Nop()
	ledger := stock.NewStockUseCase(products, movs, publisher, log)
	return &fixture{
		uc:        fulfillment.NewFulfillOrderUseCase(txRunner, products, movs, orders, ledger, publisher, log),
		products:  products,
		movs:      movs,
		orders:    orders,
		publisher: publisher,
	}
}

func (f *fixture) seedProduct(t *testing.T, name, price string, available int) *entity.Product {
	t.Helper()
	p, err := valueobject.NewMoneyFromString(price)
	require.NoError(t, err)
	now := time.Now().UTC()
	product := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       "SKU-" + name,
		Name:      name,
		Price:     p,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.products.Create(product))
	if available > 0 {
		require.NoError(t, f.movs.Create(&entity.StockMovement{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Quantity:  available,
			Direction: entity.DirectionIn,
			Reference: "NF-SEED",
			CreatedBy: "seed",
			CreatedAt: now,
		}))
	}
	return product
}

func (f *fixture) available(t *testing.T, productID string) int {
	t.Helper()
	sum, err := f.movs.SumByProduct(productID)
	require.NoError(t, err)
	return sum
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestFulfill_OK(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Tênis Veloce", "399.90", 10)

	resp, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "João da Silva",
		Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusFinalized, resp.Status)
	assert.Equal(t, "52998224725", resp.CustomerDocument)
	assert.Equal(t, "529.982.247-25", resp.DocumentFormatted)
	require.NotNil(t, resp.FinalizedAt)

	// Total = precio unitario x cantidad.
	wantTotal := decimal.RequireFromString("1599.60")
	assert.True(t, resp.Total.Equal(wantTotal), "total %s", resp.Total)
	assert.Equal(t, "R$ 1.599,60", resp.TotalFormatted)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Tênis Veloce", resp.Items[0].ProductName)
	assert.True(t, resp.Items[0].Subtotal.Equal(wantTotal))

	// El débito quedó asentado: 10 - 4.
	assert.Equal(t, 6, f.available(t, product.ID))

	// El asiento de salida referencia la orden.
	movs, err := f.movs.ListByProduct(product.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.DirectionOut, movs[0].Direction)
	assert.Equal(t, "PEDIDO-"+resp.ID, movs[0].Reference)

	// Se emitió pedidos.criado con el contrato esperado.
	evts := f.publisher.published()
	require.Len(t, evts, 1)
	assert.Equal(t, events.TopicOrderCreated, evts[0].Event)
	data, ok := evts[0].Data.(events.OrderCreatedData)
	require.True(t, ok)
	assert.Equal(t, "PEDIDO-"+resp.ID, data.OrderID)
	assert.Equal(t, "52998224725", data.CustomerDocument)
	assert.True(t, data.Total.Equal(wantTotal))
}

func TestFulfill_EntradaInvalida(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Bola", "179.90", 10)

	cases := []struct {
		name   string
		seller string
		in     dto.FulfillOrderInput
	}{
		{"sin vendedor", "", dto.FulfillOrderInput{
			CustomerDocument: validCPF, CustomerName: "Ana",
			Items: []dto.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		}},
		{"sin nombre", "vendedor-1", dto.FulfillOrderInput{
			CustomerDocument: validCPF,
			Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		}},
		{"sin líneas", "vendedor-1", dto.FulfillOrderInput{
			CustomerDocument: validCPF, CustomerName: "Ana",
		}},
		{"cantidad cero", "vendedor-1", dto.FulfillOrderInput{
			CustomerDocument: validCPF, CustomerName: "Ana",
			Items: []dto.OrderLineInput{{ProductID: product.ID, Quantity: 0}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Fulfill(context.Background(), tc.seller, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Zero(t, f.orders.count())
	assert.Equal(t, 10, f.available(t, product.ID))
}

// TestFulfill_DocumentoInvalido el documento se valida antes de cualquier
// lectura o escritura.
func TestFulfill_DocumentoInvalido(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Bola", "179.90", 10)

	_, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: "529.982.247-26", // dígito verificador alterado
		CustomerName:     "Ana",
		Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDocumentChecksum)
	assert.Zero(t, f.orders.count())
	assert.Empty(t, f.publisher.published())
}

func TestFulfill_ProductoInexistente(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "Ana",
		Items:            []dto.OrderLineInput{{ProductID: "no-existe", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestFulfill_StockInsuficiente(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Camisa", "249.90", 3)

	_, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "Ana",
		Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 5}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficientErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, product.ID, insufficientErr.ProductID)
	assert.Equal(t, 3, insufficientErr.Available)
	assert.Equal(t, 5, insufficientErr.Requested)

	// Sin efectos: ni orden, ni débitos, ni eventos.
	assert.Zero(t, f.orders.count())
	assert.Equal(t, 3, f.available(t, product.ID))
	assert.Empty(t, f.publisher.published())
}

// TestFulfill_TodoONada si cualquier línea falla, ninguna se debita.
func TestFulfill_TodoONada(t *testing.T) {
	f := newFixture()
	abundant := f.seedProduct(t, "Meia", "29.90", 100)
	scarce := f.seedProduct(t, "Chuteira", "599.90", 1)

	_, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "Ana",
		Items: []dto.OrderLineInput{
			{ProductID: abundant.ID, Quantity: 2},
			{ProductID: scarce.ID, Quantity: 3},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 100, f.available(t, abundant.ID))
	assert.Equal(t, 1, f.available(t, scarce.ID))
	assert.Zero(t, f.orders.count())
}

func TestFulfill_VariasLineasAcumulaTotal(t *testing.T) {
	f := newFixture()
	shoes := f.seedProduct(t, "Tênis", "399.90", 10)
	socks := f.seedProduct(t, "Meia", "29.90", 50)

	resp, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "Ana",
		Items: []dto.OrderLineInput{
			{ProductID: shoes.ID, Quantity: 2},
			{ProductID: socks.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	// 2 x 399.90 + 3 x 29.90 = 889.50
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("889.50")), "total %s", resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 8, f.available(t, shoes.ID))
	assert.Equal(t, 47, f.available(t, socks.ID))
}

// TestFulfill_RollbackAnteFalloDeInsercion un error al persistir la orden
// revierte también los débitos de stock ya asentados en la transacción.
func TestFulfill_RollbackAnteFalloDeInsercion(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Garrafa", "89.90", 10)
	f.orders.failCreate = errors.New("disco lleno")

	_, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "Ana",
		Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 4}},
	})
	require.Error(t, err)

	assert.Equal(t, 10, f.available(t, product.ID))
	assert.Zero(t, f.orders.count())
	assert.Empty(t, f.publisher.published())
}

// TestFulfill_ProductoDesactivadoEntreFases el producto se desactiva entre la
// validación y el commit: la orden se aborta sin efectos.
func TestFulfill_ProductoDesactivadoEntreFases(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Descontinuado", "49.90", 10)
	var once sync.Once
	f.products.onForUpdate = func(id string) {
		once.Do(func() { f.products.deactivate(id) })
	}

	_, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "Ana",
		Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, 10, f.available(t, product.ID))
	assert.Zero(t, f.orders.count())
}

// TestFulfill_OrdenesConcurrentes dos órdenes de 6 unidades compiten por 10
// disponibles: exactamente una gana y la disponibilidad nunca queda negativa.
func TestFulfill_OrdenesConcurrentes(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Edición Limitada", "999.90", 10)

	var (
		mu    sync.Mutex
		oks   int
		errs  []error
		group errgroup.Group
	)
	for i := 0; i < 2; i++ {
		group.Go(func() error {
			_, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
				CustomerDocument: validCPF,
				CustomerName:     "Ana",
				Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 6}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else {
				oks++
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())

	assert.Equal(t, 1, oks, "exactamente una orden debe ganar")
	require.Len(t, errs, 1)
	lost := errs[0]
	assert.True(t,
		errors.Is(lost, domain.ErrInsufficientStock) || errors.Is(lost, domain.ErrConcurrencyConflict),
		"error inesperado del perdedor: %v", lost)

	assert.Equal(t, 4, f.available(t, product.ID))
	assert.Equal(t, 1, f.orders.count())
}

// TestFulfill_FallaDelBusNoAfecta la orden queda confirmada aunque el bus de
// eventos falle.
func TestFulfill_FallaDelBusNoAfecta(t *testing.T) {
	f := newFixture()
	f.publisher.err = assert.AnError
	product := f.seedProduct(t, "Bola", "179.90", 10)

	resp, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "Ana",
		Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusFinalized, resp.Status)
	assert.Equal(t, 8, f.available(t, product.ID))
}

func TestGetOrder(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Mochila", "149.90", 10)

	created, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
		CustomerDocument: validCPF,
		CustomerName:     "Ana",
		Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	got, err := f.uc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.Total.Equal(created.Total))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Mochila", got.Items[0].ProductName)

	_, err = f.uc.GetOrder(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrders_MasRecientePrimero(t *testing.T) {
	f := newFixture()
	product := f.seedProduct(t, "Bola", "179.90", 20)

	var ids []string
	for i := 0; i < 3; i++ {
		resp, err := f.uc.Fulfill(context.Background(), "vendedor-1", dto.FulfillOrderInput{
			CustomerDocument: validCPF,
			CustomerName:     "Ana",
			Items:            []dto.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	list, err := f.uc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)
}
