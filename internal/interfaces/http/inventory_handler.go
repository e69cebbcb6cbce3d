package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP de movimientos y conteos físicos (protegido).
type InventoryHandler struct {
	uc     *inventory.RegisterMovementUseCase
	opname *inventory.StockOpnameUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.RegisterMovementUseCase, opname *inventory.StockOpnameUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc, opname: opname}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  in recibe mercancía de proveedor y actualiza el costo promedio; out y adjustment corrigen stock.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, outlet_id, type (in|out|adjustment), quantity, unit_cost (in)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.RegisterMovementFromRequest(c.Context(), userID, in)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Opname godoc
// @Summary      Conteo físico (stock opname)
// @Description  Ajusta cada producto a la cantidad contada. Las líneas sin diferencia no generan movimiento.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockOpnameRequest  true  "outlet_id e items con counted_quantity"
// @Success      201   {object}  dto.StockOpnameResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/opname [post]
func (h *InventoryHandler) Opname(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.StockOpnameRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.opname.Execute(c.Context(), userID, in)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
