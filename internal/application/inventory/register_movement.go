package inventory

import (
	"context"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement(ctx, MovementInputDTO).
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, userID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	input := MovementInputDTO{
		UserID:      userID,
		ProductID:   in.ProductID,
		OutletID:    in.OutletID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		ReferenceID: in.ReferenceID,
		Notes:       in.Notes,
	}
	return uc.RegisterMovement(ctx, input)
}
