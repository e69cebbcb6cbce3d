package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/inventory"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/memory"
)

const (
	outletA = "outlet-a"
	user    = "user-1"
)

type fixture struct {
	store    *memory.Store
	movement *inventory.RegisterMovementUseCase
	opname   *inventory.StockOpnameUseCase
	query    *inventory.StockQueryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(time.Second)
	store.AddOutlet(entity.Outlet{ID: outletA, Code: "A", Name: "Centro"})
	store.AddProduct(entity.Product{ID: "p1", SKU: "P1", Name: "Café", Price: decimal.NewFromInt(15), Cost: decimal.NewFromInt(1000)})
	store.AddProduct(entity.Product{ID: "p2", SKU: "P2", Name: "Pan", Price: decimal.NewFromInt(3), Cost: decimal.NewFromInt(1)})
	l := ledger.NewStockLedger(nil)
	return &fixture{
		store:    store,
		movement: inventory.NewRegisterMovementUseCase(store, l, store.Products(), store.Outlets(), nil),
		opname:   inventory.NewStockOpnameUseCase(store, l, store.Outlets(), nil),
		query:    inventory.NewStockQueryUseCase(ledger.NewQueryService(store.Stock(), store.Movements())),
	}
}

func cost(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// ── RegisterMovement ─────────────────────────────────────────────────────────

func TestRegisterMovement_EntradaActualizaCostoPromedio(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// stock 0: el costo pasa a ser el de la entrada
	mov, err := f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p1", OutletID: outletA, Type: "in", Quantity: 10, UnitCost: cost(1000), ReferenceID: "po-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "purchase", mov.ReferenceType)
	assert.Equal(t, "po-1", mov.ReferenceID)

	_, err = f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p1", OutletID: outletA, Type: "in", Quantity: 10, UnitCost: cost(2000),
	})
	require.NoError(t, err)

	p, err := f.store.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1500).Equal(p.Cost), "costo: %s", p.Cost)

	stock, err := f.query.GetStock(ctx, "p1", outletA)
	require.NoError(t, err)
	assert.Equal(t, int64(20), stock.Quantity)
}

func TestRegisterMovement_EntradasEnDosSucursalesAcumulanCosto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.AddOutlet(entity.Outlet{ID: "outlet-b", Code: "B", Name: "Norte"})

	_, err := f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p1", OutletID: "outlet-b", Type: "adjustment", Quantity: 10,
	})
	require.NoError(t, err)

	// outlet-a sin stock: el costo pasa a 2000
	_, err = f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p1", OutletID: outletA, Type: "in", Quantity: 5, UnitCost: cost(2000),
	})
	require.NoError(t, err)

	// outlet-b parte del costo que dejó outlet-a, no del catálogo original
	_, err = f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p1", OutletID: "outlet-b", Type: "in", Quantity: 10, UnitCost: cost(1000),
	})
	require.NoError(t, err)

	p, err := f.store.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1500).Equal(p.Cost), "costo: %s", p.Cost)
}

func TestRegisterMovement_SalidaYAjuste(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p2", OutletID: outletA, Type: "in", Quantity: 5, UnitCost: cost(1),
	})
	require.NoError(t, err)

	out, err := f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p2", OutletID: outletA, Type: "out", Quantity: 2, Notes: "merma",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), out.Delta)
	assert.Equal(t, "manual", out.ReferenceType)

	adj, err := f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p2", OutletID: outletA, Type: "adjustment", Quantity: -3,
	})
	require.NoError(t, err)
	assert.Equal(t, "adjustment", adj.Type)
	assert.Equal(t, int64(0), adj.QuantityAfter)

	_, err = f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p2", OutletID: outletA, Type: "out", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestRegisterMovement_Validaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := map[string]inventory.MovementInputDTO{
		"entrada sin costo":  {ProductID: "p1", OutletID: outletA, Type: "in", Quantity: 1},
		"salida cero":        {ProductID: "p1", OutletID: outletA, Type: "out", Quantity: 0},
		"ajuste cero":        {ProductID: "p1", OutletID: outletA, Type: "adjustment", Quantity: 0},
		"traslado directo":   {ProductID: "p1", OutletID: outletA, Type: "transfer", Quantity: 1},
		"sin sucursal":       {ProductID: "p1", Type: "out", Quantity: 1},
		"costo negativo":     {ProductID: "p1", OutletID: outletA, Type: "in", Quantity: 1, UnitCost: cost(-1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.movement.RegisterMovement(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{ProductID: "nada", OutletID: outletA, Type: "out", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Opname ───────────────────────────────────────────────────────────────────

func TestOpname_AjustaYOmiteLineasSinDiferencia(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p1", OutletID: outletA, Type: "in", Quantity: 10, UnitCost: cost(1000),
	})
	require.NoError(t, err)
	_, err = f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
		UserID: user, ProductID: "p2", OutletID: outletA, Type: "in", Quantity: 4, UnitCost: cost(1),
	})
	require.NoError(t, err)

	resp, err := f.opname.Execute(ctx, user, dto.StockOpnameRequest{
		OutletID: outletA,
		Items: []dto.OpnameItemInput{
			{ProductID: "p2", CountedQuantity: 4},
			{ProductID: "p1", CountedQuantity: 6},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "p2", resp.Items[0].ProductID)
	assert.Equal(t, int64(0), resp.Items[0].Delta)
	assert.Equal(t, int64(4), resp.Items[0].SystemQuantity)
	assert.Equal(t, int64(10), resp.Items[1].SystemQuantity)
	assert.Equal(t, int64(-4), resp.Items[1].Delta)

	movs, err := f.store.Movements().ListByReference(ctx, entity.OpnameRef(resp.OpnameID))
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeAdjustment, movs[0].Type)

	// repetir el mismo conteo no escribe movimientos
	again, err := f.opname.Execute(ctx, user, dto.StockOpnameRequest{
		OutletID: outletA,
		Items:    []dto.OpnameItemInput{{ProductID: "p1", CountedQuantity: 6}},
	})
	require.NoError(t, err)
	movs, err = f.store.Movements().ListByReference(ctx, entity.OpnameRef(again.OpnameID))
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestOpname_ProductoRepetidoInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.opname.Execute(context.Background(), user, dto.StockOpnameRequest{
		OutletID: outletA,
		Items:    []dto.OpnameItemInput{{ProductID: "p1", CountedQuantity: 1}, {ProductID: "p1", CountedQuantity: 2}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Consultas ────────────────────────────────────────────────────────────────

func TestStockQuery_HistorialYBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.movement.RegisterMovement(ctx, inventory.MovementInputDTO{
			UserID: user, ProductID: "p2", OutletID: outletA, Type: "in", Quantity: 2, UnitCost: cost(1),
		})
		require.NoError(t, err)
	}

	page, err := f.query.ListMovements(ctx, "p2", outletA, nil, nil, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(6), page.Items[0].QuantityAfter)

	bal, err := f.query.VerifyBalance(ctx, "p2", outletA)
	require.NoError(t, err)
	assert.True(t, bal.Consistent)
	assert.Equal(t, int64(6), bal.Quantity)
}
