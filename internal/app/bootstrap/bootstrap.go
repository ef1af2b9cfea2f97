package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	policyservice "tessera/contexts/asset-core/policy-service"
	policybolt "tessera/contexts/asset-core/policy-service/adapters/bolt"
	policypostgres "tessera/contexts/asset-core/policy-service/adapters/postgres"
	policyentities "tessera/contexts/asset-core/policy-service/domain/entities"
	registryservice "tessera/contexts/asset-core/registry-service"
	registrybolt "tessera/contexts/asset-core/registry-service/adapters/bolt"
	registrypostgres "tessera/contexts/asset-core/registry-service/adapters/postgres"
	registryworkers "tessera/contexts/asset-core/registry-service/application/workers"
	settlementengine "tessera/contexts/settlement-core/settlement-engine"
	settlementbolt "tessera/contexts/settlement-core/settlement-engine/adapters/bolt"
	settlementmemory "tessera/contexts/settlement-core/settlement-engine/adapters/memory"
	settlementpostgres "tessera/contexts/settlement-core/settlement-engine/adapters/postgres"
	"tessera/internal/platform/config"
	"tessera/internal/platform/db"
	"tessera/internal/platform/httpserver"
	"tessera/internal/platform/kv"
	"tessera/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const eventsTopic = "asset.events"

type APIApp struct {
	server *httpserver.Server
	closer func() error
	logger *slog.Logger
}

type WorkerApp struct {
	outboxRelay  registryworkers.OutboxRelay
	closer       func() error
	pollInterval time.Duration
	logger       *slog.Logger
}

// modules is the assembled context stack plus the worker-facing surfaces the
// chosen store driver provides.
type modules struct {
	registry   registryservice.Module
	policy     policyservice.Module
	settlement settlementengine.Module
	relay      registryworkers.OutboxRelay
	closer     func() error
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	stack, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(stack.registry, stack.policy, stack.settlement, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server: server,
		closer: stack.closer,
		logger: logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	stack, err := buildModules(cfg, logger)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		if stack.closer != nil {
			_ = stack.closer()
		}
		return nil, err
	}

	relay := stack.relay
	relay.Publisher = kafka
	return &WorkerApp{
		outboxRelay:  relay,
		closer:       stack.closer,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func buildModules(cfg config.Config, logger *slog.Logger) (*modules, error) {
	initial := policyentities.DefaultPolicy(
		cfg.OwnerAddress,
		cfg.TreasuryAddress,
		cfg.DefaultCommissionRateBps,
		time.Now().UTC(),
	)
	for _, currency := range cfg.SeedCurrencies {
		initial.SupportedCurrencies[currency] = true
	}

	switch cfg.StoreDriver {
	case "memory":
		return buildMemoryModules(initial, logger)
	case "postgres":
		return buildPostgresModules(cfg, initial, logger)
	case "bolt":
		return buildBoltModules(cfg, initial, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func buildMemoryModules(initial policyentities.Policy, logger *slog.Logger) (*modules, error) {
	policyModule := policyservice.NewInMemoryModule(initial, logger)
	policyStore := policyModule.Store

	registryModule := registryservice.NewInMemoryModule(policyStore, logger)
	registryStore := registryModule.Store

	settlementModule := settlementengine.NewInMemoryModule(policyStore, registryStore, registryStore, logger)

	return &modules{
		registry:   registryModule,
		policy:     policyModule,
		settlement: settlementModule,
		relay: registryworkers.OutboxRelay{
			Outbox:    registryStore,
			Clock:     registryStore,
			Topic:     eventsTopic,
			BatchSize: 100,
			Logger:    logger,
		},
	}, nil
}

func buildPostgresModules(cfg config.Config, initial policyentities.Policy, logger *slog.Logger) (*modules, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required for the postgres store driver")
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	policyRepo := policypostgres.NewRepository(pg.DB, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := policyRepo.EnsurePolicy(ctx, initial); err != nil {
		_ = pg.Close()
		return nil, err
	}

	policyModule := policyservice.NewModule(policyservice.Dependencies{
		Repository: policyRepo,
		Clock:      policypostgres.SystemClock{},
		Logger:     logger,
	})

	registryRepo := registrypostgres.NewRepository(pg.DB, logger)
	registryModule := registryservice.NewModule(registryservice.Dependencies{
		Assets:      registryRepo,
		Authorizer:  policyRepo,
		Clock:       registrypostgres.SystemClock{},
		IDGenerator: registrypostgres.UUIDGenerator{},
		Logger:      logger,
	})

	settlementRepo := settlementpostgres.NewRepository(pg.DB, logger)
	settlementModule := settlementengine.NewModule(settlementengine.Dependencies{
		Ledger:      settlementmemory.NewLedger(),
		Policy:      policyRepo,
		Assets:      registryRepo,
		Applier:     registryRepo,
		Settlements: settlementRepo,
		Idempotency: settlementRepo,
		Clock:       settlementpostgres.SystemClock{},
		IDGenerator: settlementpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	return &modules{
		registry:   registryModule,
		policy:     policyModule,
		settlement: settlementModule,
		relay: registryworkers.OutboxRelay{
			Outbox:    registryRepo,
			Clock:     registrypostgres.SystemClock{},
			Topic:     eventsTopic,
			BatchSize: 100,
			Logger:    logger,
		},
		closer: pg.Close,
	}, nil
}

func buildBoltModules(cfg config.Config, initial policyentities.Policy, logger *slog.Logger) (*modules, error) {
	bdb, err := kv.OpenBolt(cfg.BoltPath)
	if err != nil {
		return nil, err
	}

	policyStore, err := policybolt.NewStore(bdb)
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := policyStore.EnsurePolicy(ctx, initial); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	registryStore, err := registrybolt.NewStore(bdb)
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	settlementStore, err := settlementbolt.NewStore(bdb)
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}

	policyModule := policyservice.NewModule(policyservice.Dependencies{
		Repository: policyStore,
		Clock:      policyStore,
		Logger:     logger,
	})
	registryModule := registryservice.NewModule(registryservice.Dependencies{
		Assets:      registryStore,
		Authorizer:  policyStore,
		Clock:       registryStore,
		IDGenerator: registryStore,
		Logger:      logger,
	})
	settlementModule := settlementengine.NewModule(settlementengine.Dependencies{
		Ledger:      settlementmemory.NewLedger(),
		Policy:      policyStore,
		Assets:      registryStore,
		Applier:     registryStore,
		Settlements: settlementStore,
		Idempotency: settlementStore,
		Clock:       registryStore,
		IDGenerator: registryStore,
		Logger:      logger,
	})

	return &modules{
		registry:   registryModule,
		policy:     policyModule,
		settlement: settlementModule,
		relay: registryworkers.OutboxRelay{
			Outbox:    registryStore,
			Clock:     registryStore,
			Topic:     eventsTopic,
			BatchSize: 100,
			Logger:    logger,
		},
		closer: bdb.Close,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.closer != nil {
		return a.closer()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.closer != nil {
		return w.closer()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
