package transfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/application/transfer"
	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/memory"
)

const (
	outletA = "outlet-a"
	outletB = "outlet-b"
	actor   = "user-1"
)

type fixture struct {
	store  *memory.Store
	ledger *ledger.StockLedger
	uc     *transfer.UseCase
	pub    *recordingPublisher
}

type recordingPublisher struct {
	published []*entity.StockMovement
}

func (p *recordingPublisher) PublishMovements(_ context.Context, movs []*entity.StockMovement) error {
	p.published = append(p.published, movs...)
	return nil
}

func newFixture(t *testing.T, products ...string) *fixture {
	t.Helper()
	store := memory.New(time.Second)
	store.AddOutlet(entity.Outlet{ID: outletA, Code: "A", Name: "Centro"})
	store.AddOutlet(entity.Outlet{ID: outletB, Code: "B", Name: "Norte"})
	for _, p := range products {
		store.AddProduct(entity.Product{ID: p, SKU: p, Name: p, Price: decimal.NewFromInt(10), Cost: decimal.NewFromInt(5)})
	}
	l := ledger.NewStockLedger(nil)
	pub := &recordingPublisher{}
	uc := transfer.NewUseCase(store, l, store.Transfers(), store.Outlets(), store.Products(), store.Stock(), pub)
	return &fixture{store: store, ledger: l, uc: uc, pub: pub}
}

func (f *fixture) seed(t *testing.T, productID, outletID string, qty int64) {
	t.Helper()
	require.NoError(t, f.store.Run(context.Background(), func(uow repository.UnitOfWork) error {
		_, _, err := f.ledger.SetAbsolute(context.Background(), uow, ledger.Absolute{
			ProductID: productID, OutletID: outletID, NewQuantity: qty, Reference: entity.OpnameRef("seed"),
		})
		return err
	}))
}

func (f *fixture) qty(t *testing.T, productID, outletID string) int64 {
	t.Helper()
	rec, err := f.store.Stock().Get(context.Background(), productID, outletID)
	require.NoError(t, err)
	return rec.Quantity
}

func request(items ...dto.TransferItemInput) dto.CreateTransferRequest {
	return dto.CreateTransferRequest{FromOutletID: outletA, ToOutletID: outletB, Items: items}
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestCreate_NoMueveStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1")
	f.seed(t, "p1", outletA, 10)

	resp, err := f.uc.Create(ctx, actor, request(dto.TransferItemInput{ProductID: "p1", Quantity: 5}))
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusPending), resp.Status)
	assert.Contains(t, resp.TransferNumber, "TRF-")
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].LineNo)

	assert.Equal(t, int64(10), f.qty(t, "p1", outletA))
	assert.Equal(t, int64(0), f.qty(t, "p1", outletB))
	movs, err := f.store.Movements().ListByReference(ctx, entity.TransferRef(resp.ID))
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestCreate_Validaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1")
	f.seed(t, "p1", outletA, 3)

	_, err := f.uc.Create(ctx, actor, dto.CreateTransferRequest{FromOutletID: outletA, ToOutletID: outletA,
		Items: []dto.TransferItemInput{{ProductID: "p1", Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(ctx, actor, request())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(ctx, actor, request(dto.TransferItemInput{ProductID: "p1", Quantity: 0}))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(ctx, actor, dto.CreateTransferRequest{FromOutletID: outletA, ToOutletID: "no-existe",
		Items: []dto.TransferItemInput{{ProductID: "p1", Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Create(ctx, actor, request(dto.TransferItemInput{ProductID: "otro", Quantity: 1}))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_VerificacionOrientativaSumaLineasRepetidas(t *testing.T) {
	f := newFixture(t, "p1")
	f.seed(t, "p1", outletA, 5)

	_, err := f.uc.Create(context.Background(), actor, request(
		dto.TransferItemInput{ProductID: "p1", Quantity: 3},
		dto.TransferItemInput{ProductID: "p1", Quantity: 3},
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var insuf *domain.InsufficientStockError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, int64(5), insuf.Available)
	assert.Equal(t, int64(6), insuf.Requested)
}

// ── Approve ──────────────────────────────────────────────────────────────────

func TestApprove_MueveStockYEscribeDosMovimientos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1")
	f.seed(t, "p1", outletA, 10)
	f.seed(t, "p1", outletB, 2)

	created, err := f.uc.Create(ctx, actor, request(dto.TransferItemInput{ProductID: "p1", Quantity: 5}))
	require.NoError(t, err)

	approved, err := f.uc.Approve(ctx, created.ID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusCompleted), approved.Status)
	assert.Equal(t, "manager-1", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	assert.Equal(t, int64(5), f.qty(t, "p1", outletA))
	assert.Equal(t, int64(7), f.qty(t, "p1", outletB))

	movs, err := f.store.Movements().ListByReference(ctx, entity.TransferRef(created.ID))
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeTransfer, movs[0].Type)
	assert.Equal(t, outletA, movs[0].OutletID)
	assert.Equal(t, int64(-5), movs[0].Delta)
	assert.Equal(t, entity.MovementTypeTransfer, movs[1].Type)
	assert.Equal(t, outletB, movs[1].OutletID)
	assert.Equal(t, int64(5), movs[1].Delta)
	assert.Equal(t, int64(2), movs[1].QuantityBefore)

	assert.Len(t, f.pub.published, 2)
}

func TestApprove_FallaEnItemDosNoDejaEfectos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1", "p2", "p3")
	f.seed(t, "p1", outletA, 10)
	f.seed(t, "p2", outletA, 1)
	f.seed(t, "p3", outletA, 10)

	created, err := f.uc.Create(ctx, actor, request(
		dto.TransferItemInput{ProductID: "p1", Quantity: 5},
		dto.TransferItemInput{ProductID: "p2", Quantity: 1},
		dto.TransferItemInput{ProductID: "p3", Quantity: 5},
	))
	require.NoError(t, err)

	// el stock de p2 se vende entre la creación y la aprobación
	f.seed(t, "p2", outletA, 0)

	_, err = f.uc.Approve(ctx, created.ID, actor)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(10), f.qty(t, "p1", outletA))
	assert.Equal(t, int64(0), f.qty(t, "p1", outletB))
	assert.Equal(t, int64(0), f.qty(t, "p2", outletA))
	assert.Equal(t, int64(10), f.qty(t, "p3", outletA))

	movs, err := f.store.Movements().ListByReference(ctx, entity.TransferRef(created.ID))
	require.NoError(t, err)
	assert.Empty(t, movs)
	assert.Empty(t, f.pub.published)

	got, err := f.uc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusPending), got.Status)
}

func TestApprove_MovimientosEnOrdenDeProductoYSucursal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1", "p2")
	f.seed(t, "p1", outletB, 5)
	f.seed(t, "p2", outletB, 5)

	// destino outlet-a < origen outlet-b, y p2 pedido antes que p1
	req := dto.CreateTransferRequest{FromOutletID: outletB, ToOutletID: outletA, Items: []dto.TransferItemInput{
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
	}}
	created, err := f.uc.Create(ctx, actor, req)
	require.NoError(t, err)
	_, err = f.uc.Approve(ctx, created.ID, actor)
	require.NoError(t, err)

	movs, err := f.store.Movements().ListByReference(ctx, entity.TransferRef(created.ID))
	require.NoError(t, err)
	type fila struct {
		product string
		outlet  string
		delta   int64
	}
	got := make([]fila, 0, len(movs))
	for _, m := range movs {
		got = append(got, fila{m.ProductID, m.OutletID, m.Delta})
	}
	assert.Equal(t, []fila{
		{"p1", outletA, 2},
		{"p1", outletB, -2},
		{"p2", outletA, 1},
		{"p2", outletB, -1},
	}, got)

	assert.Equal(t, int64(2), f.qty(t, "p1", outletA))
	assert.Equal(t, int64(3), f.qty(t, "p1", outletB))
	assert.Equal(t, int64(1), f.qty(t, "p2", outletA))
	assert.Equal(t, int64(4), f.qty(t, "p2", outletB))
}

func TestApprove_DestinoMenorConOrigenSinStockRevierteElCredito(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1")
	f.seed(t, "p1", outletB, 3)

	created, err := f.uc.Create(ctx, actor, dto.CreateTransferRequest{
		FromOutletID: outletB, ToOutletID: outletA,
		Items: []dto.TransferItemInput{{ProductID: "p1", Quantity: 3}},
	})
	require.NoError(t, err)
	f.seed(t, "p1", outletB, 1)

	// el crédito en outlet-a se aplica primero y se revierte con el débito fallido
	_, err = f.uc.Approve(ctx, created.ID, actor)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(0), f.qty(t, "p1", outletA))
	assert.Equal(t, int64(1), f.qty(t, "p1", outletB))
}

func TestApprove_Inexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Approve(context.Background(), "no-existe", actor)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Transiciones ─────────────────────────────────────────────────────────────

func TestTransiciones_EstadosTerminales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1")
	f.seed(t, "p1", outletA, 10)

	completed, err := f.uc.Create(ctx, actor, request(dto.TransferItemInput{ProductID: "p1", Quantity: 2}))
	require.NoError(t, err)
	_, err = f.uc.Approve(ctx, completed.ID, actor)
	require.NoError(t, err)

	_, err = f.uc.Approve(ctx, completed.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.uc.Cancel(ctx, completed.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(8), f.qty(t, "p1", outletA), "la segunda aprobación no mueve stock")

	cancelled, err := f.uc.Create(ctx, actor, request(dto.TransferItemInput{ProductID: "p1", Quantity: 2}))
	require.NoError(t, err)
	resp, err := f.uc.Cancel(ctx, cancelled.ID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.TransferStatusCancelled), resp.Status)
	assert.Equal(t, "manager-1", resp.CancelledBy)

	_, err = f.uc.Approve(ctx, cancelled.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(8), f.qty(t, "p1", outletA))
}

// ── Consultas ────────────────────────────────────────────────────────────────

func TestList_FiltraPorEstado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "p1")
	f.seed(t, "p1", outletA, 10)

	first, err := f.uc.Create(ctx, actor, request(dto.TransferItemInput{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, actor, request(dto.TransferItemInput{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	_, err = f.uc.Cancel(ctx, first.ID, actor)
	require.NoError(t, err)

	pending, err := f.uc.List(ctx, "pending", outletB, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, pending.Items, 1)
	assert.Equal(t, 20, pending.Page.Limit)

	all, err := f.uc.List(ctx, "", "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = f.uc.List(ctx, "archived", "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missing, err := f.uc.Get(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
