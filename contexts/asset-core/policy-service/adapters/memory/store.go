package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"tessera/contexts/asset-core/policy-service/domain/entities"
)

// Store holds the single policy value behind one lock. The settlement
// engine's PolicyReader methods are implemented directly so the same store
// serves both modules.
type Store struct {
	mu     sync.RWMutex
	policy entities.Policy
}

func NewStore(initial entities.Policy) *Store {
	if initial.SupportedCurrencies == nil {
		initial.SupportedCurrencies = make(map[string]bool)
	}
	return &Store{policy: initial}
}

func (s *Store) GetPolicy(_ context.Context) (entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePolicy(s.policy), nil
}

func (s *Store) SetCommissionRate(_ context.Context, rateBps uint64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.CommissionRateBps = rateBps
	s.policy.UpdatedAt = updatedAt.UTC()
	return nil
}

func (s *Store) SetPaused(_ context.Context, paused bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.Paused = paused
	s.policy.UpdatedAt = updatedAt.UTC()
	return nil
}

func (s *Store) SetCurrencySupport(_ context.Context, currency string, supported bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	currency = strings.TrimSpace(currency)
	if supported {
		s.policy.SupportedCurrencies[currency] = true
	} else {
		delete(s.policy.SupportedCurrencies, currency)
	}
	s.policy.UpdatedAt = updatedAt.UTC()
	return nil
}

func (s *Store) IsPaused(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.Paused, nil
}

func (s *Store) IsCurrencySupported(_ context.Context, currency string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.CurrencySupported(currency), nil
}

func (s *Store) CommissionRateBps(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.CommissionRateBps, nil
}

func (s *Store) TreasuryAddress(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.TreasuryAddress, nil
}

// IsPrivileged answers the privileged-principal check against the stored
// owner address.
func (s *Store) IsPrivileged(_ context.Context, caller string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.IsOwner(caller), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func clonePolicy(policy entities.Policy) entities.Policy {
	currencies := make(map[string]bool, len(policy.SupportedCurrencies))
	for currency, supported := range policy.SupportedCurrencies {
		currencies[currency] = supported
	}
	policy.SupportedCurrencies = currencies
	return policy
}
