package ports

import (
	"context"
	"time"

	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
)

// Ledger is the external value-transfer capability over a named currency.
// Any non-nil error is fatal to the enclosing batch.
type Ledger interface {
	Transfer(ctx context.Context, currency string, from string, to string, amount uint64) error
}

// PolicyReader exposes the policy state the engine consults before and
// during settlement.
type PolicyReader interface {
	IsPaused(ctx context.Context) (bool, error)
	IsCurrencySupported(ctx context.Context, currency string) (bool, error)
	CommissionRateBps(ctx context.Context) (uint64, error)
	TreasuryAddress(ctx context.Context) (string, error)
}

// AssetState is the registry view the engine validates against.
type AssetState struct {
	AssetID    uint64
	Owner      string
	Registered bool
}

// AssetReader resolves registration and current ownership for one asset.
// The boolean reports existence; unregistered identifiers are not errors.
type AssetReader interface {
	GetAssetState(ctx context.Context, assetID uint64) (AssetState, bool, error)
}

// OwnershipTransfer is one staged ownership reassignment. ExpectedOwner is
// the declared seller; the applier must reject the whole set when any
// current owner differs.
type OwnershipTransfer struct {
	AssetID       uint64
	ExpectedOwner string
	NewOwner      string
}

// AssetPurchasedEvent is appended per batch item on commit.
type AssetPurchasedEvent struct {
	EventID    string
	AssetID    uint64
	Buyer      string
	Seller     string
	Price      uint64
	OccurredAt time.Time
}

// CommissionChargedEvent records the commission leg of one settlement.
type CommissionChargedEvent struct {
	EventID      string
	SettlementID string
	Buyer        string
	Treasury     string
	Currency     string
	Amount       uint64
	RateBps      uint64
	OccurredAt   time.Time
}

// PurchaseEventSet is the audit payload committed with the ownership
// reassignment.
type PurchaseEventSet struct {
	Purchases  []AssetPurchasedEvent
	Commission CommissionChargedEvent
}

// PurchaseApplier is the registry-side commit surface. ApplyPurchase must
// atomically re-verify every expected owner, reassign all of them, and
// append the purchase events to the outbox; on any mismatch it fails with
// ErrInvalidAssetOwnership and mutates nothing.
type PurchaseApplier interface {
	ApplyPurchase(ctx context.Context, transfers []OwnershipTransfer, events PurchaseEventSet) error
}

// SettlementRepository persists settlement receipts for audit reads.
type SettlementRepository interface {
	CreateSettlement(ctx context.Context, receipt entities.SettlementReceipt) error
	GetSettlement(ctx context.Context, settlementID string) (entities.SettlementReceipt, error)
	ListSettlementsByBuyer(ctx context.Context, buyer string, limit int, offset int) ([]entities.SettlementReceipt, error)
}

// IdempotencyRecord captures dedupe metadata for purchase requests.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	SettlementID string
	ExpiresAt    time.Time
}

// IdempotencyStore abstracts idempotency persistence with TTL handling.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

// Clock allows deterministic testing of settlement timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts settlement/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
