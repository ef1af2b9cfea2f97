package memory

import (
	"context"
	"sync"
	"time"

	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	"tessera/contexts/settlement-core/settlement-engine/ports"

	"github.com/google/uuid"
)

// Store keeps settlement receipts and idempotency records in process memory.
// It backs local development and the settlement test suites.
type Store struct {
	mu          sync.RWMutex
	receipts    map[string]entities.SettlementReceipt
	order       []string
	idempotency map[string]ports.IdempotencyRecord
}

func NewStore() *Store {
	return &Store{
		receipts:    make(map[string]entities.SettlementReceipt),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
}

func (s *Store) CreateSettlement(_ context.Context, receipt entities.SettlementReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.receipts[receipt.SettlementID]; !exists {
		s.order = append(s.order, receipt.SettlementID)
	}
	s.receipts[receipt.SettlementID] = cloneReceipt(receipt)
	return nil
}

func (s *Store) GetSettlement(_ context.Context, settlementID string) (entities.SettlementReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, found := s.receipts[settlementID]
	if !found {
		return entities.SettlementReceipt{}, domainerrors.ErrSettlementNotFound
	}
	return cloneReceipt(receipt), nil
}

func (s *Store) ListSettlementsByBuyer(_ context.Context, buyer string, limit int, offset int) ([]entities.SettlementReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]entities.SettlementReceipt, 0, limit)
	skipped := 0
	for _, id := range s.order {
		receipt := s.receipts[id]
		if receipt.Buyer != buyer {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		matched = append(matched, cloneReceipt(receipt))
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, found := s.idempotency[key]
	if !found {
		return ports.IdempotencyRecord{}, false, nil
	}
	if now.After(record.ExpiresAt) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneReceipt(receipt entities.SettlementReceipt) entities.SettlementReceipt {
	out := receipt
	out.Items = append([]entities.ReceiptItem(nil), receipt.Items...)
	return out
}
