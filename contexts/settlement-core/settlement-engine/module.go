package settlementengine

import (
	"log/slog"
	"sync"
	"time"

	httpadapter "tessera/contexts/settlement-core/settlement-engine/adapters/http"
	"tessera/contexts/settlement-core/settlement-engine/adapters/memory"
	"tessera/contexts/settlement-core/settlement-engine/application/commands"
	"tessera/contexts/settlement-core/settlement-engine/application/queries"
	"tessera/contexts/settlement-core/settlement-engine/ports"
)

// Module is the composition surface for the settlement engine. Runtime
// wiring should consume Handler; Store and Ledger are exposed for
// tests/inspection.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
	Ledger  *memory.Ledger
}

type Dependencies struct {
	Ledger         ports.Ledger
	Policy         ports.PolicyReader
	Assets         ports.AssetReader
	Applier        ports.PurchaseApplier
	Settlements    ports.SettlementRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// NewModule wires the settlement use-cases against explicit ports. The
// mutex created here is the engine-wide settlement serializer.
func NewModule(deps Dependencies) Module {
	purchaseAssets := commands.PurchaseAssetsUseCase{
		Ledger:         deps.Ledger,
		Policy:         deps.Policy,
		Assets:         deps.Assets,
		Applier:        deps.Applier,
		Settlements:    deps.Settlements,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		Serial:         &sync.Mutex{},
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	getSettlement := queries.GetSettlementUseCase{
		Settlements: deps.Settlements,
	}
	listSettlements := queries.ListSettlementsUseCase{
		Settlements: deps.Settlements,
	}

	return Module{
		Handler: httpadapter.Handler{
			PurchaseAssets:  purchaseAssets,
			GetSettlement:   getSettlement,
			ListSettlements: listSettlements,
			Logger:          deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine against in-memory receipts and an
// in-process ledger. Used by tests and the memory store driver.
func NewInMemoryModule(
	policy ports.PolicyReader,
	assets ports.AssetReader,
	applier ports.PurchaseApplier,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	ledger := memory.NewLedger()
	module := NewModule(Dependencies{
		Ledger:      ledger,
		Policy:      policy,
		Assets:      assets,
		Applier:     applier,
		Settlements: store,
		Idempotency: store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	module.Ledger = ledger
	return module
}
