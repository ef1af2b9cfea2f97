package registryservice

import (
	"log/slog"

	httpadapter "tessera/contexts/asset-core/registry-service/adapters/http"
	"tessera/contexts/asset-core/registry-service/adapters/memory"
	"tessera/contexts/asset-core/registry-service/application/commands"
	"tessera/contexts/asset-core/registry-service/application/queries"
	"tessera/contexts/asset-core/registry-service/ports"
)

// Module is the composition surface for the registry. Runtime wiring should
// consume Handler; Store is exposed for tests/inspection.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Assets      ports.AssetRepository
	Authorizer  ports.Authorizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// NewModule wires the registry use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	registerAsset := commands.RegisterAssetUseCase{
		Assets:      deps.Assets,
		Authorizer:  deps.Authorizer,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	getAsset := queries.GetAssetUseCase{
		Assets: deps.Assets,
		Logger: deps.Logger,
	}
	assetExists := queries.AssetExistsUseCase{
		Assets: deps.Assets,
		Logger: deps.Logger,
	}
	listAssets := queries.ListAssetsUseCase{
		Assets: deps.Assets,
		Logger: deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			RegisterAsset: registerAsset,
			GetAsset:      getAsset,
			AssetExists:   assetExists,
			ListAssets:    listAssets,
			Logger:        deps.Logger,
		},
	}
}

// NewInMemoryModule wires the registry against the in-memory store with a
// static privileged owner. Used by tests and the memory store driver.
func NewInMemoryModule(authorizer ports.Authorizer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Assets:      store,
		Authorizer:  authorizer,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
