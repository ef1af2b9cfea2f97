package queries

import (
	"context"
	"log/slog"

	"tessera/contexts/asset-core/registry-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/registry-service/domain/errors"
	"tessera/contexts/asset-core/registry-service/ports"
)

const maxListLimit = 100

type ListAssetsUseCase struct {
	Assets ports.AssetRepository
	Logger *slog.Logger
}

func (u ListAssetsUseCase) Execute(ctx context.Context, cursor string, limit int) ([]entities.Asset, string, error) {
	if limit < 0 || limit > maxListLimit {
		return nil, "", domainerrors.ErrInvalidListFilter
	}
	if limit == 0 {
		limit = 20
	}
	return u.Assets.ListAssets(ctx, cursor, limit)
}
