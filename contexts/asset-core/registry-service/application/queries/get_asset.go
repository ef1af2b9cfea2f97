package queries

import (
	"context"
	"errors"
	"log/slog"

	"tessera/contexts/asset-core/registry-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/registry-service/domain/errors"
	"tessera/contexts/asset-core/registry-service/ports"
)

type GetAssetUseCase struct {
	Assets ports.AssetRepository
	Logger *slog.Logger
}

func (u GetAssetUseCase) Execute(ctx context.Context, assetID uint64) (entities.Asset, error) {
	return u.Assets.GetAsset(ctx, assetID)
}

// Metadata returns the stored metadata hash, or the zero value when the
// identifier was never registered. A missing asset is not an error here;
// existence is a separate read.
func (u GetAssetUseCase) Metadata(ctx context.Context, assetID uint64) (string, error) {
	asset, err := u.Assets.GetAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAssetNotFound) {
			return "", nil
		}
		return "", err
	}
	return asset.MetadataHash, nil
}
