package ports

import (
	"context"
	"time"

	"tessera/contexts/asset-core/policy-service/domain/entities"
)

// PolicyRepository owns policy persistence. Mutations are atomic per call.
type PolicyRepository interface {
	GetPolicy(ctx context.Context) (entities.Policy, error)
	SetCommissionRate(ctx context.Context, rateBps uint64, updatedAt time.Time) error
	SetPaused(ctx context.Context, paused bool, updatedAt time.Time) error
	SetCurrencySupport(ctx context.Context, currency string, supported bool, updatedAt time.Time) error
}

// Clock allows deterministic testing of policy timestamps.
type Clock interface {
	Now() time.Time
}
