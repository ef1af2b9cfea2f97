package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tessera/contexts/asset-core/registry-service/application/commands"
	"tessera/contexts/asset-core/registry-service/application/queries"
	"tessera/contexts/asset-core/registry-service/domain/entities"
	httptransport "tessera/contexts/asset-core/registry-service/transport/http"
)

type Handler struct {
	RegisterAsset commands.RegisterAssetUseCase
	GetAsset      queries.GetAssetUseCase
	AssetExists   queries.AssetExistsUseCase
	ListAssets    queries.ListAssetsUseCase
	Logger        *slog.Logger
}

func (h Handler) RegisterAssetHandler(
	ctx context.Context,
	caller string,
	req httptransport.RegisterAssetRequest,
) (httptransport.RegisterAssetResponse, error) {
	result, err := h.RegisterAsset.Execute(ctx, commands.RegisterAssetCommand{
		Caller:       caller,
		AssetID:      req.AssetID,
		Seller:       req.Seller,
		Price:        req.Price,
		MetadataHash: req.MetadataHash,
	})
	if err != nil {
		return httptransport.RegisterAssetResponse{}, err
	}
	return httptransport.RegisterAssetResponse{
		Status: "success",
		Data:   toDTO(result.Asset),
	}, nil
}

func (h Handler) GetAssetHandler(ctx context.Context, assetID uint64) (httptransport.GetAssetResponse, error) {
	asset, err := h.GetAsset.Execute(ctx, assetID)
	if err != nil {
		return httptransport.GetAssetResponse{}, err
	}
	return httptransport.GetAssetResponse{
		Status: "success",
		Data:   toDTO(asset),
	}, nil
}

func (h Handler) GetAssetMetadataHandler(ctx context.Context, assetID uint64) (httptransport.AssetMetadataResponse, error) {
	hash, err := h.GetAsset.Metadata(ctx, assetID)
	if err != nil {
		return httptransport.AssetMetadataResponse{}, err
	}
	resp := httptransport.AssetMetadataResponse{Status: "success"}
	resp.Data.AssetID = assetID
	resp.Data.MetadataHash = hash
	return resp, nil
}

func (h Handler) AssetExistsHandler(ctx context.Context, assetID uint64) (httptransport.AssetExistsResponse, error) {
	exists, err := h.AssetExists.Execute(ctx, assetID)
	if err != nil {
		return httptransport.AssetExistsResponse{}, err
	}
	resp := httptransport.AssetExistsResponse{Status: "success"}
	resp.Data.AssetID = assetID
	resp.Data.Exists = exists
	return resp, nil
}

func (h Handler) ListAssetsHandler(
	ctx context.Context,
	req httptransport.ListAssetsRequest,
) (httptransport.ListAssetsResponse, error) {
	items, nextCursor, err := h.ListAssets.Execute(ctx, req.Cursor, req.Limit)
	if err != nil {
		return httptransport.ListAssetsResponse{}, err
	}
	resp := httptransport.ListAssetsResponse{
		Status:     "success",
		Data:       make([]httptransport.AssetDTO, 0, len(items)),
		NextCursor: nextCursor,
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toDTO(item))
	}
	return resp, nil
}

func toDTO(asset entities.Asset) httptransport.AssetDTO {
	return httptransport.AssetDTO{
		AssetID:      asset.AssetID,
		Seller:       asset.Seller,
		Owner:        asset.Owner,
		Price:        asset.Price,
		MetadataHash: asset.MetadataHash,
		Registered:   asset.Registered,
		RegisteredAt: asset.RegisteredAt.UTC().Format(time.RFC3339),
		UpdatedAt:    asset.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
