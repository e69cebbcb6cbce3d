package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrInvalidTransition: la transferencia o venta no está en el estado requerido.
	ErrInvalidTransition = errors.New("transición de estado inválida")
	// ErrLockTimeout: se agotó la espera del bloqueo de fila; el caller puede reintentar.
	ErrLockTimeout = errors.New("tiempo de espera de bloqueo agotado")
)

// InsufficientStockError detalla qué producto y sucursal no tenían stock suficiente.
// errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	ProductID string
	OutletID  string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en sucursal %s: disponible %d, solicitado %d",
		e.ProductID, e.OutletID, e.Available, e.Requested)
}

// Is permite comparar contra el sentinel ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransitionError indica el estado actual y la acción rechazada.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s en estado %q no admite %q", e.Entity, e.ID, e.From, e.Action)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
