package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"tessera/contexts/asset-core/registry-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/registry-service/domain/errors"
	"tessera/contexts/asset-core/registry-service/ports"
	settlementerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	settlementports "tessera/contexts/settlement-core/settlement-engine/ports"

	"github.com/google/uuid"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Store is the in-memory registry adapter. One lock guards assets and the
// outbox so registration and purchase commits are indivisible.
type Store struct {
	mu sync.RWMutex

	assets map[uint64]entities.Asset
	outbox map[string]outboxRecord
	order  []string
}

type outboxRecord struct {
	Message ports.OutboxMessage
	Status  string
	SentAt  *time.Time
}

func NewStore() *Store {
	return &Store{
		assets: make(map[uint64]entities.Asset),
		outbox: make(map[string]outboxRecord),
	}
}

func (s *Store) CreateAssetWithOutbox(_ context.Context, asset entities.Asset, event ports.RegisteredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assets[asset.AssetID]; exists {
		return domainerrors.ErrAssetAlreadyRegistered
	}
	envelope, err := ports.BuildRegisteredEnvelope(event)
	if err != nil {
		return err
	}
	if err := s.appendOutboxLocked(envelope); err != nil {
		return err
	}
	s.assets[asset.AssetID] = asset
	return nil
}

func (s *Store) GetAsset(_ context.Context, assetID uint64) (entities.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[assetID]
	if !ok {
		return entities.Asset{}, domainerrors.ErrAssetNotFound
	}
	return asset, nil
}

func (s *Store) AssetExists(_ context.Context, assetID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.assets[assetID]
	return ok, nil
}

func (s *Store) ListAssets(_ context.Context, cursor string, limit int) ([]entities.Asset, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	items := make([]entities.Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		items = append(items, asset)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].AssetID < items[j].AssetID
	})

	offset := decodeCursor(cursor)
	if offset >= len(items) {
		return []entities.Asset{}, "", nil
	}
	end := offset + limit
	nextCursor := ""
	if end < len(items) {
		nextCursor = encodeCursor(end)
	} else {
		end = len(items)
	}
	return append([]entities.Asset(nil), items[offset:end]...), nextCursor, nil
}

// GetAssetState adapts the asset row to the settlement engine's view.
func (s *Store) GetAssetState(_ context.Context, assetID uint64) (settlementports.AssetState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[assetID]
	if !ok {
		return settlementports.AssetState{}, false, nil
	}
	return settlementports.AssetState{
		AssetID:    asset.AssetID,
		Owner:      asset.Owner,
		Registered: asset.Registered,
	}, true, nil
}

// ApplyPurchase re-verifies every expected owner under the store lock, then
// reassigns ownership and appends the purchase events. Verification precedes
// any mutation so a stale seller leaves the registry untouched.
func (s *Store) ApplyPurchase(
	_ context.Context,
	transfers []settlementports.OwnershipTransfer,
	events settlementports.PurchaseEventSet,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, transfer := range transfers {
		asset, ok := s.assets[transfer.AssetID]
		if !ok || !asset.Registered {
			return settlementerrors.ErrUnregisteredAsset
		}
		if asset.Owner != transfer.ExpectedOwner {
			return settlementerrors.ErrInvalidAssetOwnership
		}
	}

	envelopes, err := settlementports.PurchaseEnvelopes(events)
	if err != nil {
		return err
	}

	updatedAt := events.Commission.OccurredAt
	if len(events.Purchases) > 0 {
		updatedAt = events.Purchases[0].OccurredAt
	}
	for _, transfer := range transfers {
		asset := s.assets[transfer.AssetID]
		asset.Owner = transfer.NewOwner
		if !updatedAt.IsZero() {
			asset.UpdatedAt = updatedAt.UTC()
		}
		s.assets[transfer.AssetID] = asset
	}
	for _, envelope := range envelopes {
		if err := s.appendOutboxLocked(envelope); err != nil {
			return err
		}
	}
	return nil
}

// SetOwner mutates ownership directly, bypassing settlement. Exposed for
// tests and operational repair only.
func (s *Store) SetOwner(_ context.Context, assetID uint64, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[assetID]
	if !ok {
		return domainerrors.ErrAssetNotFound
	}
	asset.Owner = owner
	s.assets[assetID] = asset
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, outboxID := range s.order {
		row := s.outbox[outboxID]
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrAssetNotFound
	}
	ts := sentAt.UTC()
	row.Status = outboxStatusSent
	row.SentAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[envelope.EventID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	s.order = append(s.order, envelope.EventID)
	return nil
}

func decodeCursor(cursor string) int {
	if strings.TrimSpace(cursor) == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	index, err := strconv.Atoi(string(raw))
	if err != nil || index < 0 {
		return 0
	}
	return index
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}
