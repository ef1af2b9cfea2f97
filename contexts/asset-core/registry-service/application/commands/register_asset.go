package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "tessera/contexts/asset-core/registry-service/application"
	"tessera/contexts/asset-core/registry-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/registry-service/domain/errors"
	"tessera/contexts/asset-core/registry-service/ports"
)

const registeredEventType = "asset.registered"

type RegisterAssetCommand struct {
	Caller       string
	AssetID      uint64
	Seller       string
	Price        uint64
	MetadataHash string
}

type RegisterAssetResult struct {
	Asset entities.Asset
}

type RegisterAssetUseCase struct {
	Assets      ports.AssetRepository
	Authorizer  ports.Authorizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute runs the registration workflow in this order:
// 1) privileged-owner check
// 2) input validation
// 3) atomic asset + outbox persistence (uniqueness enforced by the repository).
func (u RegisterAssetUseCase) Execute(ctx context.Context, cmd RegisterAssetCommand) (RegisterAssetResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.Caller) == "" {
		return RegisterAssetResult{}, domainerrors.ErrUnauthorized
	}
	privileged, err := u.Authorizer.IsPrivileged(ctx, strings.TrimSpace(cmd.Caller))
	if err != nil {
		logger.Error("privileged check failed",
			"event", "register_asset_authorizer_failed",
			"module", "asset-core/registry-service",
			"layer", "application",
			"asset_id", cmd.AssetID,
			"error", err.Error(),
		)
		return RegisterAssetResult{}, err
	}
	if !privileged {
		logger.Warn("registration rejected for non-privileged caller",
			"event", "register_asset_unauthorized",
			"module", "asset-core/registry-service",
			"layer", "application",
			"asset_id", cmd.AssetID,
			"caller", cmd.Caller,
		)
		return RegisterAssetResult{}, domainerrors.ErrUnauthorized
	}

	now := u.now()
	asset, ok := entities.NewAsset(cmd.AssetID, cmd.Seller, cmd.Price, cmd.MetadataHash, now)
	if !ok {
		return RegisterAssetResult{}, domainerrors.ErrInvalidRegistration
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RegisterAssetResult{}, err
	}
	event := ports.RegisteredEvent{
		EventID:    eventID,
		AssetID:    asset.AssetID,
		Seller:     asset.Seller,
		Price:      asset.Price,
		OccurredAt: now,
	}

	// Registration write boundary: asset row and asset.registered outbox
	// message are committed together by the repository adapter.
	if err := u.Assets.CreateAssetWithOutbox(ctx, asset, event); err != nil {
		if errors.Is(err, domainerrors.ErrAssetAlreadyRegistered) {
			logger.Warn("duplicate asset registration rejected",
				"event", "register_asset_duplicate",
				"module", "asset-core/registry-service",
				"layer", "application",
				"asset_id", cmd.AssetID,
			)
			return RegisterAssetResult{}, err
		}
		logger.Error("registration write failed",
			"event", "register_asset_write_failed",
			"module", "asset-core/registry-service",
			"layer", "application",
			"asset_id", cmd.AssetID,
			"error", err.Error(),
		)
		return RegisterAssetResult{}, err
	}

	logger.Info("asset registered",
		"event", "asset_registered",
		"module", "asset-core/registry-service",
		"layer", "application",
		"asset_id", asset.AssetID,
		"seller", asset.Seller,
		"price", asset.Price,
	)
	return RegisterAssetResult{Asset: asset}, nil
}

func (u RegisterAssetUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
