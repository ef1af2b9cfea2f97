package policyservice

import (
	"log/slog"

	httpadapter "tessera/contexts/asset-core/policy-service/adapters/http"
	"tessera/contexts/asset-core/policy-service/adapters/memory"
	"tessera/contexts/asset-core/policy-service/application"
	"tessera/contexts/asset-core/policy-service/domain/entities"
	"tessera/contexts/asset-core/policy-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.PolicyRepository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the policy service against an in-memory store
// seeded with the given initial policy.
func NewInMemoryModule(initial entities.Policy, logger *slog.Logger) Module {
	store := memory.NewStore(initial)
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
