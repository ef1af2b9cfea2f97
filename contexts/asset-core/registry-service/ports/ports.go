package ports

import (
	"context"
	"time"

	"tessera/contexts/asset-core/registry-service/domain/entities"
	contractsv1 "tessera/contracts/gen/events/v1"
)

// RegisteredEvent is the outbound integration payload persisted to outbox
// together with the new asset row.
type RegisteredEvent struct {
	EventID    string
	AssetID    uint64
	Seller     string
	Price      uint64
	OccurredAt time.Time
}

// AssetRepository owns asset persistence and the registration write boundary.
type AssetRepository interface {
	// CreateAssetWithOutbox must atomically persist the asset and its
	// asset.registered outbox event, failing with ErrAssetAlreadyRegistered
	// when the identifier is taken.
	CreateAssetWithOutbox(ctx context.Context, asset entities.Asset, event RegisteredEvent) error
	GetAsset(ctx context.Context, assetID uint64) (entities.Asset, error)
	AssetExists(ctx context.Context, assetID uint64) (bool, error)
	ListAssets(ctx context.Context, cursor string, limit int) ([]entities.Asset, string, error)
}

// Authorizer answers the privileged-principal check for admin operations.
type Authorizer interface {
	IsPrivileged(ctx context.Context, caller string) (bool, error)
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
