package boltadapter

import (
	"context"
	"encoding/json"
	"time"

	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	"tessera/contexts/settlement-core/settlement-engine/ports"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketReceipts    = []byte("settlement_receipts")
	bucketBuyerIndex  = []byte("settlement_buyer_index")
	bucketIdempotency = []byte("settlement_idempotency")
)

// Store is the embedded durable settlement adapter. Receipts are keyed by
// settlement id; a per-buyer sequence index preserves settlement order for
// listing.
type Store struct {
	db *bolt.DB
}

func NewStore(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketReceipts, bucketBuyerIndex, bucketIdempotency} {
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

func (s *Store) CreateSettlement(_ context.Context, receipt entities.SettlementReceipt) error {
	raw, err := json.Marshal(boltReceiptFromEntity(receipt))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketReceipts).Put([]byte(receipt.SettlementID), raw); err != nil {
			return err
		}
		index, err := tx.Bucket(bucketBuyerIndex).CreateBucketIfNotExists([]byte(receipt.Buyer))
		if err != nil {
			return err
		}
		seq, err := index.NextSequence()
		if err != nil {
			return err
		}
		return index.Put(sequenceKey(seq), []byte(receipt.SettlementID))
	})
}

func (s *Store) GetSettlement(_ context.Context, settlementID string) (entities.SettlementReceipt, error) {
	var receipt entities.SettlementReceipt
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketReceipts).Get([]byte(settlementID))
		if raw == nil {
			return domainerrors.ErrSettlementNotFound
		}
		var row boltReceipt
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		receipt = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.SettlementReceipt{}, err
	}
	return receipt, nil
}

func (s *Store) ListSettlementsByBuyer(_ context.Context, buyer string, limit int, offset int) ([]entities.SettlementReceipt, error) {
	receipts := make([]entities.SettlementReceipt, 0, limit)
	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket(bucketBuyerIndex).Bucket([]byte(buyer))
		if index == nil {
			return nil
		}
		store := tx.Bucket(bucketReceipts)
		skipped := 0
		cursor := index.Cursor()
		for key, id := cursor.First(); key != nil; key, id = cursor.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			raw := store.Get(id)
			if raw == nil {
				continue
			}
			var row boltReceipt
			if err := json.Unmarshal(raw, &row); err != nil {
				return err
			}
			receipts = append(receipts, row.toEntity())
			if len(receipts) == limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var record ports.IdempotencyRecord
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketIdempotency)
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		var row boltIdempotency
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		if now.After(row.ExpiresAt) {
			return bucket.Delete([]byte(key))
		}
		record = ports.IdempotencyRecord{
			Key:          key,
			RequestHash:  row.RequestHash,
			SettlementID: row.SettlementID,
			ExpiresAt:    row.ExpiresAt,
		}
		found = true
		return nil
	})
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	return record, found, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	raw, err := json.Marshal(boltIdempotency{
		RequestHash:  record.RequestHash,
		SettlementID: record.SettlementID,
		ExpiresAt:    record.ExpiresAt.UTC(),
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIdempotency).Put([]byte(record.Key), raw)
	})
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		key[i] = byte(seq)
		seq >>= 8
	}
	return key
}

type boltReceipt struct {
	SettlementID string     `json:"settlement_id"`
	Buyer        string     `json:"buyer"`
	Currency     string     `json:"currency"`
	TotalPrice   uint64     `json:"total_price"`
	Commission   uint64     `json:"commission"`
	RateBps      uint64     `json:"rate_bps"`
	Items        []boltItem `json:"items"`
	SettledAt    time.Time  `json:"settled_at"`
}

type boltItem struct {
	AssetID uint64 `json:"asset_id"`
	Price   uint64 `json:"price"`
	Seller  string `json:"seller"`
}

type boltIdempotency struct {
	RequestHash  string    `json:"request_hash"`
	SettlementID string    `json:"settlement_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func boltReceiptFromEntity(receipt entities.SettlementReceipt) boltReceipt {
	items := make([]boltItem, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, boltItem{
			AssetID: item.AssetID,
			Price:   item.Price,
			Seller:  item.Seller,
		})
	}
	return boltReceipt{
		SettlementID: receipt.SettlementID,
		Buyer:        receipt.Buyer,
		Currency:     receipt.Currency,
		TotalPrice:   receipt.TotalPrice,
		Commission:   receipt.Commission,
		RateBps:      receipt.RateBps,
		Items:        items,
		SettledAt:    receipt.SettledAt.UTC(),
	}
}

func (r boltReceipt) toEntity() entities.SettlementReceipt {
	items := make([]entities.ReceiptItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, entities.ReceiptItem{
			AssetID: item.AssetID,
			Price:   item.Price,
			Seller:  item.Seller,
		})
	}
	return entities.SettlementReceipt{
		SettlementID: r.SettlementID,
		Buyer:        r.Buyer,
		Currency:     r.Currency,
		TotalPrice:   r.TotalPrice,
		Commission:   r.Commission,
		RateBps:      r.RateBps,
		Items:        items,
		SettledAt:    r.SettledAt.UTC(),
	}
}
