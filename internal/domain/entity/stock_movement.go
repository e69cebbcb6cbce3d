package entity

import "time"

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeIn         MovementType = "in"         // entrada (compra, devolución)
	MovementTypeOut        MovementType = "out"        // salida (venta, baja manual)
	MovementTypeAdjustment MovementType = "adjustment" // ajuste / conteo físico
	MovementTypeTransfer   MovementType = "transfer"   // traslado entre sucursales
)

// Valid indica si el tipo es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment, MovementTypeTransfer:
		return true
	}
	return false
}

// ReferenceKind tipo de documento que origina un movimiento.
type ReferenceKind string

// Tipos de referencia soportados por el ledger.
const (
	ReferenceSale     ReferenceKind = "sale"
	ReferencePurchase ReferenceKind = "purchase"
	ReferenceTransfer ReferenceKind = "transfer"
	ReferenceOpname   ReferenceKind = "opname"
	ReferenceManual   ReferenceKind = "manual"
)

// Reference enlaza un movimiento con el documento que lo causó (venta, compra, traslado, conteo).
type Reference struct {
	Kind ReferenceKind
	ID   string
}

// SaleRef referencia a una venta.
func SaleRef(id string) Reference { return Reference{Kind: ReferenceSale, ID: id} }

// PurchaseRef referencia a una recepción de proveedor.
func PurchaseRef(id string) Reference { return Reference{Kind: ReferencePurchase, ID: id} }

// TransferRef referencia a un traslado entre sucursales.
func TransferRef(id string) Reference { return Reference{Kind: ReferenceTransfer, ID: id} }

// OpnameRef referencia a un conteo físico (stock opname).
func OpnameRef(id string) Reference { return Reference{Kind: ReferenceOpname, ID: id} }

// ManualRef referencia a un ajuste manual.
func ManualRef(id string) Reference { return Reference{Kind: ReferenceManual, ID: id} }

// Valid indica si la referencia tiene un tipo conocido e ID.
func (r Reference) Valid() bool {
	if r.ID == "" {
		return false
	}
	switch r.Kind {
	case ReferenceSale, ReferencePurchase, ReferenceTransfer, ReferenceOpname, ReferenceManual:
		return true
	}
	return false
}

// StockMovement registro inmutable de un cambio de stock.
// QuantityAfter = QuantityBefore + Delta.
type StockMovement struct {
	ID             string
	ProductID      string
	OutletID       string
	Type           MovementType
	Delta          int64
	QuantityBefore int64
	QuantityAfter  int64
	Reference      Reference
	ActorID        string
	Notes          string
	CreatedAt      time.Time
}
