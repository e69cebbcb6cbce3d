package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// OutletUseCase casos de uso para sucursales. El alta crea también el stock en cero
// de todo el catálogo, en la misma transacción.
type OutletUseCase struct {
	txRunner repository.TxRunner
	repo     repository.OutletRepository
}

// NewOutletUseCase construye el caso de uso.
func NewOutletUseCase(txRunner repository.TxRunner, repo repository.OutletRepository) *OutletUseCase {
	return &OutletUseCase{txRunner: txRunner, repo: repo}
}

// Create crea una nueva sucursal. Código repetido dentro de la empresa: ErrDuplicate.
func (uc *OutletUseCase) Create(ctx context.Context, companyID string, in dto.CreateOutletRequest) (*dto.OutletResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	outlet := &entity.Outlet{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Code:      in.Code,
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var products int
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		if err := uow.Outlets().Create(ctx, outlet); err != nil {
			return err
		}
		ids, err := uow.Products().ListIDs(ctx)
		if err != nil {
			return err
		}
		products = len(ids)
		return uow.Stock().EnsureForOutlet(ctx, outlet.ID, ids)
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("outlet_id", outlet.ID).
		Str("code", outlet.Code).
		Int("products", products).
		Msg("sucursal creada")
	return toOutletResponse(outlet), nil
}

// GetByID obtiene una sucursal por ID. nil si no existe.
func (uc *OutletUseCase) GetByID(ctx context.Context, id string) (*dto.OutletResponse, error) {
	outlet, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if outlet == nil {
		return nil, nil
	}
	return toOutletResponse(outlet), nil
}

// List lista sucursales con paginación.
func (uc *OutletUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.OutletListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OutletResponse, 0, len(list))
	for _, o := range list {
		items = append(items, *toOutletResponse(o))
	}
	return &dto.OutletListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func toOutletResponse(o *entity.Outlet) *dto.OutletResponse {
	if o == nil {
		return nil
	}
	return &dto.OutletResponse{
		ID:        o.ID,
		CompanyID: o.CompanyID,
		Code:      o.Code,
		Name:      o.Name,
		Address:   o.Address,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
