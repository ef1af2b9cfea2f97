package boltadapter

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"tessera/contexts/asset-core/registry-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/registry-service/domain/errors"
	"tessera/contexts/asset-core/registry-service/ports"
	settlementerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	settlementports "tessera/contexts/settlement-core/settlement-engine/ports"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketAssets      = []byte("registry_assets")
	bucketOutbox      = []byte("registry_outbox")
	bucketOutboxIndex = []byte("registry_outbox_index")
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Store is the embedded durable registry adapter. bbolt gives one writer at
// a time, so every Update is the atomic write boundary.
type Store struct {
	db *bolt.DB
}

type outboxRow struct {
	Message ports.OutboxMessage `json:"message"`
	Status  string              `json:"status"`
	SentAt  *time.Time          `json:"sent_at,omitempty"`
}

func NewStore(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketAssets, bucketOutbox, bucketOutboxIndex} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateAssetWithOutbox(_ context.Context, asset entities.Asset, event ports.RegisteredEvent) error {
	envelope, err := ports.BuildRegisteredEnvelope(event)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		assets := tx.Bucket(bucketAssets)
		key := assetKey(asset.AssetID)
		if assets.Get(key) != nil {
			return domainerrors.ErrAssetAlreadyRegistered
		}
		raw, err := json.Marshal(asset)
		if err != nil {
			return err
		}
		if err := assets.Put(key, raw); err != nil {
			return err
		}
		return appendOutbox(tx, envelope)
	})
}

func (s *Store) GetAsset(_ context.Context, assetID uint64) (entities.Asset, error) {
	var asset entities.Asset
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketAssets).Get(assetKey(assetID))
		if raw == nil {
			return domainerrors.ErrAssetNotFound
		}
		return json.Unmarshal(raw, &asset)
	})
	if err != nil {
		return entities.Asset{}, err
	}
	return asset, nil
}

func (s *Store) AssetExists(_ context.Context, assetID uint64) (bool, error) {
	exists := false
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketAssets).Get(assetKey(assetID)) != nil
		return nil
	})
	return exists, err
}

func (s *Store) ListAssets(_ context.Context, cursor string, limit int) ([]entities.Asset, string, error) {
	if limit <= 0 {
		limit = 20
	}
	items := make([]entities.Asset, 0, limit)
	nextCursor := ""

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAssets).Cursor()
		key, raw := c.First()
		if cursor != "" {
			after := cursorKey(cursor)
			key, raw = c.Seek(after)
			if key != nil && string(key) == string(after) {
				key, raw = c.Next()
			}
		}
		for ; key != nil; key, raw = c.Next() {
			if len(items) == limit {
				nextCursor = encodeCursor(items[len(items)-1].AssetID)
				return nil
			}
			var asset entities.Asset
			if err := json.Unmarshal(raw, &asset); err != nil {
				return err
			}
			items = append(items, asset)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return items, nextCursor, nil
}

func (s *Store) GetAssetState(ctx context.Context, assetID uint64) (settlementports.AssetState, bool, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAssetNotFound) {
			return settlementports.AssetState{}, false, nil
		}
		return settlementports.AssetState{}, false, err
	}
	return settlementports.AssetState{
		AssetID:    asset.AssetID,
		Owner:      asset.Owner,
		Registered: asset.Registered,
	}, true, nil
}

func (s *Store) ApplyPurchase(
	_ context.Context,
	transfers []settlementports.OwnershipTransfer,
	events settlementports.PurchaseEventSet,
) error {
	envelopes, err := settlementports.PurchaseEnvelopes(events)
	if err != nil {
		return err
	}
	updatedAt := events.Commission.OccurredAt
	if len(events.Purchases) > 0 {
		updatedAt = events.Purchases[0].OccurredAt
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		assets := tx.Bucket(bucketAssets)

		loaded := make([]entities.Asset, 0, len(transfers))
		for _, transfer := range transfers {
			raw := assets.Get(assetKey(transfer.AssetID))
			if raw == nil {
				return settlementerrors.ErrUnregisteredAsset
			}
			var asset entities.Asset
			if err := json.Unmarshal(raw, &asset); err != nil {
				return err
			}
			if !asset.Registered {
				return settlementerrors.ErrUnregisteredAsset
			}
			if asset.Owner != transfer.ExpectedOwner {
				return settlementerrors.ErrInvalidAssetOwnership
			}
			loaded = append(loaded, asset)
		}

		for i, transfer := range transfers {
			asset := loaded[i]
			asset.Owner = transfer.NewOwner
			if !updatedAt.IsZero() {
				asset.UpdatedAt = updatedAt.UTC()
			}
			raw, err := json.Marshal(asset)
			if err != nil {
				return err
			}
			if err := assets.Put(assetKey(transfer.AssetID), raw); err != nil {
				return err
			}
		}

		for _, envelope := range envelopes {
			if err := appendOutbox(tx, envelope); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetOwner mutates ownership directly, bypassing settlement. Exposed for
// tests and operational repair only.
func (s *Store) SetOwner(_ context.Context, assetID uint64, owner string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		assets := tx.Bucket(bucketAssets)
		raw := assets.Get(assetKey(assetID))
		if raw == nil {
			return domainerrors.ErrAssetNotFound
		}
		var asset entities.Asset
		if err := json.Unmarshal(raw, &asset); err != nil {
			return err
		}
		asset.Owner = owner
		next, err := json.Marshal(asset)
		if err != nil {
			return err
		}
		return assets.Put(assetKey(assetID), next)
	})
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketOutbox).Cursor()
		for key, raw := c.First(); key != nil && len(items) < limit; key, raw = c.Next() {
			var row outboxRow
			if err := json.Unmarshal(raw, &row); err != nil {
				return err
			}
			if row.Status == outboxStatusPending {
				items = append(items, row.Message)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		index := tx.Bucket(bucketOutboxIndex)
		seqKey := index.Get([]byte(outboxID))
		if seqKey == nil {
			return domainerrors.ErrAssetNotFound
		}
		outbox := tx.Bucket(bucketOutbox)
		raw := outbox.Get(seqKey)
		if raw == nil {
			return domainerrors.ErrAssetNotFound
		}
		var row outboxRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		ts := sentAt.UTC()
		row.Status = outboxStatusSent
		row.SentAt = &ts
		next, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return outbox.Put(seqKey, next)
	})
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func appendOutbox(tx *bolt.Tx, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outbox := tx.Bucket(bucketOutbox)
	seq, err := outbox.NextSequence()
	if err != nil {
		return err
	}
	seqKey := make([]byte, 8)
	binary.BigEndian.PutUint64(seqKey, seq)

	row := outboxRow{
		Message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return err
	}
	if err := outbox.Put(seqKey, raw); err != nil {
		return err
	}
	return tx.Bucket(bucketOutboxIndex).Put([]byte(envelope.EventID), seqKey)
}

func assetKey(assetID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, assetID)
	return key
}

// The list cursor is the last asset id of the previous page.
func encodeCursor(assetID uint64) string {
	return strconv.FormatUint(assetID, 10)
}

func cursorKey(cursor string) []byte {
	id, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return assetKey(0)
	}
	return assetKey(id)
}
