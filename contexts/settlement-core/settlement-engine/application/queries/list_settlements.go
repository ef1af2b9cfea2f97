package queries

import (
	"context"
	"strings"

	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	"tessera/contexts/settlement-core/settlement-engine/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ListSettlementsQuery struct {
	Buyer  string
	Limit  int
	Offset int
}

type ListSettlementsResult struct {
	Settlements []entities.SettlementReceipt
}

type ListSettlementsUseCase struct {
	Settlements ports.SettlementRepository
}

func (u ListSettlementsUseCase) Execute(ctx context.Context, query ListSettlementsQuery) (ListSettlementsResult, error) {
	buyer := strings.TrimSpace(query.Buyer)
	if buyer == "" {
		return ListSettlementsResult{}, domainerrors.ErrInvalidPurchaseRequest
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	receipts, err := u.Settlements.ListSettlementsByBuyer(ctx, buyer, limit, offset)
	if err != nil {
		return ListSettlementsResult{}, err
	}
	return ListSettlementsResult{Settlements: receipts}, nil
}
