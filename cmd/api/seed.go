package main

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/memory"
)

// IDs fijos para probar la API en local sin base de datos.
const (
	devCompanyID = "00000000-0000-0000-0000-0000000000c0"
	devOutletA   = "00000000-0000-0000-0000-0000000000a1"
	devOutletB   = "00000000-0000-0000-0000-0000000000a2"
	devProduct1  = "00000000-0000-0000-0000-0000000000b1"
	devProduct2  = "00000000-0000-0000-0000-0000000000b2"
	devCustomer  = "00000000-0000-0000-0000-0000000000d1"
)

func seedDevelopment(store *memory.Store) {
	now := time.Now().UTC()
	store.AddOutlet(entity.Outlet{ID: devOutletA, CompanyID: devCompanyID, Code: "CENTRO", Name: "Sucursal Centro", CreatedAt: now, UpdatedAt: now})
	store.AddOutlet(entity.Outlet{ID: devOutletB, CompanyID: devCompanyID, Code: "NORTE", Name: "Sucursal Norte", CreatedAt: now, UpdatedAt: now})
	store.AddProduct(entity.Product{ID: devProduct1, SKU: "CAF-250", Name: "Café 250g", Price: decimal.NewFromInt(18000), Cost: decimal.NewFromInt(11000)})
	store.AddProduct(entity.Product{ID: devProduct2, SKU: "PAN-01", Name: "Pan tajado", Price: decimal.NewFromInt(6500), Cost: decimal.NewFromInt(4200)})
	store.AddCustomer(entity.Customer{ID: devCustomer, Name: "Cliente frecuente"})
}
