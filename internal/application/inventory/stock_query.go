package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// StockQueryUseCase consultas de stock e historial para la capa HTTP.
type StockQueryUseCase struct {
	query *ledger.QueryService
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(query *ledger.QueryService) *StockQueryUseCase {
	return &StockQueryUseCase{query: query}
}

// GetStock cantidad actual del par producto+sucursal.
func (uc *StockQueryUseCase) GetStock(ctx context.Context, productID, outletID string) (*dto.StockResponse, error) {
	rec, err := uc.query.GetStock(ctx, productID, outletID)
	if err != nil {
		return nil, err
	}
	return &dto.StockResponse{
		ProductID: rec.ProductID,
		OutletID:  rec.OutletID,
		Quantity:  rec.Quantity,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// ListMovements historial paginado, más reciente primero. from/to opcionales.
func (uc *StockQueryUseCase) ListMovements(ctx context.Context, productID, outletID string, from, to *time.Time, page dto.PageRequest) (*dto.MovementListResponse, error) {
	page.DefaultPage()
	list, err := uc.query.ListMovements(ctx, repository.MovementFilter{
		ProductID: productID,
		OutletID:  outletID,
		From:      from,
		To:        to,
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// VerifyBalance compara la cantidad guardada con la suma del historial.
func (uc *StockQueryUseCase) VerifyBalance(ctx context.Context, productID, outletID string) (*ledger.Balance, error) {
	return uc.query.VerifyBalance(ctx, productID, outletID)
}
