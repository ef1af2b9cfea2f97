package queries

import (
	"context"
	"strings"

	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	"tessera/contexts/settlement-core/settlement-engine/ports"
)

type GetSettlementQuery struct {
	SettlementID string
}

type GetSettlementUseCase struct {
	Settlements ports.SettlementRepository
}

func (u GetSettlementUseCase) Execute(ctx context.Context, query GetSettlementQuery) (entities.SettlementReceipt, error) {
	id := strings.TrimSpace(query.SettlementID)
	if id == "" {
		return entities.SettlementReceipt{}, domainerrors.ErrSettlementNotFound
	}
	return u.Settlements.GetSettlement(ctx, id)
}
