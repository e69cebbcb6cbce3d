package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger-api/internal/application/inventory"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/application/sales"
	"github.com/jhoicas/pos-ledger-api/internal/application/transfer"
	"github.com/jhoicas/pos-ledger-api/internal/application/usecase"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/pos-ledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/pos-ledger-api/pkg/jwt"
)

const (
	outletA = "outlet-a"
	outletB = "outlet-b"
	product = "prod-1"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	return newAPIWithLockTimeout(t, time.Second)
}

func newAPIWithLockTimeout(t *testing.T, lockTimeout time.Duration) *apiFixture {
	t.Helper()
	store := memory.New(lockTimeout)
	store.AddOutlet(entity.Outlet{ID: outletA, CompanyID: testCompanyID, Code: "A", Name: "Centro"})
	store.AddOutlet(entity.Outlet{ID: outletB, CompanyID: testCompanyID, Code: "B", Name: "Norte"})
	store.AddProduct(entity.Product{ID: product, SKU: "P1", Name: "Café", Price: decimal.NewFromInt(10), Cost: decimal.NewFromInt(6)})

	reg := prometheus.NewRegistry()
	l := ledger.NewStockLedger(metrics.NewLedgerMetrics(reg))
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		StockQuery:       inventory.NewStockQueryUseCase(ledger.NewQueryService(store.Stock(), store.Movements())),
		RegisterMovement: inventory.NewRegisterMovementUseCase(store, l, store.Products(), store.Outlets(), nil),
		Opname:           inventory.NewStockOpnameUseCase(store, l, store.Outlets(), nil),
		Transfers:        transfer.NewUseCase(store, l, store.Transfers(), store.Outlets(), store.Products(), store.Stock(), nil),
		Sales: sales.NewUseCase(store, l, store.Transactions(), store.Outlets(), store.Customers(),
			memory.NewIdempotencyStore(), nil, decimal.NewFromInt(10)),
		Outlets:     usecase.NewOutletUseCase(store, store.Outlets()),
		JWTSecret:   testJWTSecret,
		JWTIssuer:   testIssuer,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	})
	return &apiFixture{app: app, store: store}
}

// call envía la petición con token del rol indicado y decodifica el JSON en out (si no es nil).
func (f *apiFixture) call(t *testing.T, method, path, role string, body any, out any, headers ...string) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *apiFixture) receive(t *testing.T, outletID string, qty int64) {
	t.Helper()
	status := f.call(t, http.MethodPost, "/api/inventory/movements", pkgjwt.RoleManager, fiber.Map{
		"product_id": product, "outlet_id": outletID, "type": "in", "quantity": qty, "unit_cost": "6",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
}

func (f *apiFixture) stockOf(t *testing.T, outletID string) int64 {
	t.Helper()
	var out struct {
		Quantity int64 `json:"quantity"`
	}
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/stock/"+product+"/"+outletID, pkgjwt.RoleCashier, nil, &out))
	return out.Quantity
}

// ── Stock y movimientos ──────────────────────────────────────────────────────

func TestAPI_RecepcionConsultaYVerificacion(t *testing.T) {
	f := newAPI(t)
	f.receive(t, outletA, 12)
	assert.Equal(t, int64(12), f.stockOf(t, outletA))
	assert.Equal(t, int64(0), f.stockOf(t, outletB))

	var list struct {
		Items []struct {
			Type          string `json:"type"`
			Delta         int64  `json:"delta"`
			QuantityAfter int64  `json:"quantity_after"`
			ActorID       string `json:"actor_id"`
		} `json:"items"`
	}
	status := f.call(t, http.MethodGet, "/api/stock/"+product+"/"+outletA+"/movements?limit=10", pkgjwt.RoleCashier, nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "in", list.Items[0].Type)
	assert.Equal(t, int64(12), list.Items[0].QuantityAfter)
	assert.Equal(t, testUserID, list.Items[0].ActorID)

	var bal ledger.Balance
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/stock/"+product+"/"+outletA+"/verify", pkgjwt.RoleCashier, nil, &bal))
	assert.True(t, bal.Consistent)
	assert.Equal(t, int64(12), bal.MovementSum)
}

func TestAPI_FechaInvalidaEnHistorial(t *testing.T) {
	f := newAPI(t)
	status := f.call(t, http.MethodGet, "/api/stock/"+product+"/"+outletA+"/movements?from=ayer", pkgjwt.RoleCashier, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_SalidaSinStockDevuelveDetalle(t *testing.T) {
	f := newAPI(t)
	f.receive(t, outletA, 3)

	var errBody struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	status := f.call(t, http.MethodPost, "/api/inventory/movements", pkgjwt.RoleManager, fiber.Map{
		"product_id": product, "outlet_id": outletA, "type": "out", "quantity": 5,
	}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.EqualValues(t, 3, errBody.Details["available"])
	assert.EqualValues(t, 5, errBody.Details["requested"])
	assert.Equal(t, int64(3), f.stockOf(t, outletA))
}

func TestAPI_ValidacionYCuerpoInvalido(t *testing.T) {
	f := newAPI(t)
	var errBody struct {
		Code string `json:"code"`
	}
	status := f.call(t, http.MethodPost, "/api/inventory/movements", pkgjwt.RoleManager, fiber.Map{
		"product_id": product, "outlet_id": outletA, "type": "transfer", "quantity": 1,
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errBody.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sales", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleCashier))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Opname(t *testing.T) {
	f := newAPI(t)
	f.receive(t, outletA, 10)

	var out struct {
		Items []struct {
			SystemQuantity int64 `json:"system_quantity"`
			Delta          int64 `json:"delta"`
		} `json:"items"`
	}
	status := f.call(t, http.MethodPost, "/api/inventory/opname", pkgjwt.RoleManager, fiber.Map{
		"outlet_id": outletA,
		"items":     []fiber.Map{{"product_id": product, "counted_quantity": 7}},
	}, &out)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(10), out.Items[0].SystemQuantity)
	assert.Equal(t, int64(-3), out.Items[0].Delta)
	assert.Equal(t, int64(7), f.stockOf(t, outletA))
}

// ── Ventas ───────────────────────────────────────────────────────────────────

func TestAPI_VentaIdempotenteYReembolsoPorRol(t *testing.T) {
	f := newAPI(t)
	f.receive(t, outletA, 10)

	sale := fiber.Map{
		"outlet_id": outletA,
		"items":     []fiber.Map{{"product_id": product, "quantity": 2}},
		"paid":      "50",
	}
	var first, second struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, sale, &first, apphttp.HeaderIdempotencyKey, "caja-1-0001"))
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, sale, &second, apphttp.HeaderIdempotencyKey, "caja-1-0001"))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(8), f.stockOf(t, outletA))

	assert.Equal(t, http.StatusForbidden, f.call(t, http.MethodPost, "/api/sales/"+first.ID+"/refund", pkgjwt.RoleCashier, nil, nil))

	var refunded struct {
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusOK, f.call(t, http.MethodPost, "/api/sales/"+first.ID+"/refund", pkgjwt.RoleManager, fiber.Map{"reason": "producto dañado"}, &refunded))
	assert.Equal(t, string(entity.TransactionStatusRefunded), refunded.Status)
	assert.Equal(t, int64(10), f.stockOf(t, outletA))

	var errBody struct {
		Code string `json:"code"`
	}
	assert.Equal(t, http.StatusConflict, f.call(t, http.MethodPost, "/api/sales/"+first.ID+"/refund", pkgjwt.RoleAdmin, nil, &errBody))
	assert.Equal(t, "INVALID_TRANSITION", errBody.Code)

	assert.Equal(t, http.StatusNotFound, f.call(t, http.MethodGet, "/api/sales/no-existe", pkgjwt.RoleCashier, nil, nil))
}

// ── Traslados ────────────────────────────────────────────────────────────────

func TestAPI_BloqueoOcupadoDevuelve503ConRetryAfter(t *testing.T) {
	f := newAPIWithLockTimeout(t, 50*time.Millisecond)
	f.receive(t, outletA, 5)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.store.Run(context.Background(), func(repository.UnitOfWork) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	sale := fiber.Map{
		"outlet_id": outletA,
		"items":     []fiber.Map{{"product_id": product, "quantity": 1}},
		"paid":      "100",
	}
	raw, err := json.Marshal(sale)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/sales", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleCashier))
	req.Header.Set(apphttp.HeaderIdempotencyKey, "caja-9-0001")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
	var errBody struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(t, "LOCK_TIMEOUT", errBody.Code)

	close(release)
	require.NoError(t, <-done)

	// la clave se liberó con el 503: el reintento registra la venta
	var created struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, sale, &created, apphttp.HeaderIdempotencyKey, "caja-9-0001"))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(4), f.stockOf(t, outletA))
}

func TestAPI_TrasladoAprobadoUnaSolaVez(t *testing.T) {
	f := newAPI(t)
	f.receive(t, outletA, 10)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	status := f.call(t, http.MethodPost, "/api/transfers", pkgjwt.RoleManager, fiber.Map{
		"from_outlet_id": outletA,
		"to_outlet_id":   outletB,
		"items":          []fiber.Map{{"product_id": product, "quantity": 4}},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, int64(10), f.stockOf(t, outletA))

	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/transfers?status=pending&outlet_id="+outletB, pkgjwt.RoleManager, nil, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)

	require.Equal(t, http.StatusOK, f.call(t, http.MethodPost, "/api/transfers/"+created.ID+"/approve", pkgjwt.RoleManager, nil, nil))
	assert.Equal(t, int64(6), f.stockOf(t, outletA))
	assert.Equal(t, int64(4), f.stockOf(t, outletB))

	var errBody struct {
		Code string `json:"code"`
	}
	assert.Equal(t, http.StatusConflict, f.call(t, http.MethodPost, "/api/transfers/"+created.ID+"/approve", pkgjwt.RoleManager, nil, &errBody))
	assert.Equal(t, "INVALID_TRANSITION", errBody.Code)
	assert.Equal(t, http.StatusConflict, f.call(t, http.MethodPost, "/api/transfers/"+created.ID+"/cancel", pkgjwt.RoleManager, nil, nil))
	assert.Equal(t, int64(6), f.stockOf(t, outletA))

	assert.Equal(t, http.StatusBadRequest, f.call(t, http.MethodGet, "/api/transfers?status=raro", pkgjwt.RoleManager, nil, nil))
	assert.Equal(t, http.StatusNotFound, f.call(t, http.MethodGet, "/api/transfers/no-existe", pkgjwt.RoleManager, nil, nil))
}

// ── Sucursales ───────────────────────────────────────────────────────────────

func TestAPI_AltaDeSucursal(t *testing.T) {
	f := newAPI(t)
	var created struct {
		ID        string `json:"id"`
		CompanyID string `json:"company_id"`
	}
	body := fiber.Map{"code": "SUR", "name": "Sur", "address": "Calle 1"}
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/outlets", pkgjwt.RoleAdmin, body, &created))
	assert.Equal(t, testCompanyID, created.CompanyID)
	assert.Equal(t, int64(0), f.stockOf(t, created.ID))

	assert.Equal(t, http.StatusConflict, f.call(t, http.MethodPost, "/api/outlets", pkgjwt.RoleAdmin, body, nil))
	assert.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/outlets/"+created.ID, pkgjwt.RoleAdmin, nil, nil))
	assert.Equal(t, http.StatusNotFound, f.call(t, http.MethodGet, "/api/outlets/no-existe", pkgjwt.RoleAdmin, nil, nil))

	var list struct {
		Items []json.RawMessage `json:"items"`
	}
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/outlets", pkgjwt.RoleAdmin, nil, &list))
	assert.Len(t, list.Items, 3)
}

// ── Métricas ─────────────────────────────────────────────────────────────────

func TestAPI_MetricasExpuestas(t *testing.T) {
	f := newAPI(t)
	f.receive(t, outletA, 1)

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "pos_ledger_mutations_total")
	assert.Contains(t, string(raw), "pos_http_requests_total")
}
