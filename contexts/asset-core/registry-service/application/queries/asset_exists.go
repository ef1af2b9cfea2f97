package queries

import (
	"context"
	"log/slog"

	"tessera/contexts/asset-core/registry-service/ports"
)

type AssetExistsUseCase struct {
	Assets ports.AssetRepository
	Logger *slog.Logger
}

func (u AssetExistsUseCase) Execute(ctx context.Context, assetID uint64) (bool, error) {
	return u.Assets.AssetExists(ctx, assetID)
}
