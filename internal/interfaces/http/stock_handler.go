package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/inventory"
)

// StockHandler consultas de stock e historial por producto y sucursal.
type StockHandler struct {
	uc *inventory.StockQueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockQueryUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// GetStock godoc
// @Summary      Stock actual
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "Producto (UUID)"
// @Param        outlet_id   path  string  true  "Sucursal (UUID)"
// @Success      200  {object}  dto.StockResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/{outlet_id} [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.uc.GetStock(c.Context(), c.Params("product_id"), c.Params("outlet_id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Description  Más reciente primero. from y to en RFC3339.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "Producto (UUID)"
// @Param        outlet_id   path   string  true   "Sucursal (UUID)"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Param        limit       query  int     false  "Máximo 100"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/{outlet_id}/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	from, err := timeQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
	}
	to, err := timeQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
	}
	out, err := h.uc.ListMovements(c.Context(), c.Params("product_id"), c.Params("outlet_id"), from, to, pageFromQuery(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}

// Verify godoc
// @Summary      Verificar saldo contra historial
// @Description  consistent=false indica que la cantidad guardada no coincide con la suma de movimientos.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "Producto (UUID)"
// @Param        outlet_id   path  string  true  "Sucursal (UUID)"
// @Success      200  {object}  ledger.Balance
// @Router       /api/stock/{product_id}/{outlet_id}/verify [get]
func (h *StockHandler) Verify(c *fiber.Ctx) error {
	out, err := h.uc.VerifyBalance(c.Context(), c.Params("product_id"), c.Params("outlet_id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}

func timeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
