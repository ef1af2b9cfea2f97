package boltadapter

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"tessera/contexts/asset-core/policy-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/policy-service/domain/errors"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketPolicy = []byte("settlement_policy")
	keyPolicy    = []byte("policy")
)

// Store is the embedded durable policy adapter.
type Store struct {
	db *bolt.DB
}

func NewStore(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPolicy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// EnsurePolicy seeds the policy value when absent. Existing state wins so
// restarts never reset admin-applied configuration.
func (s *Store) EnsurePolicy(_ context.Context, initial entities.Policy) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketPolicy)
		if bucket.Get(keyPolicy) != nil {
			return nil
		}
		raw, err := json.Marshal(initial)
		if err != nil {
			return err
		}
		return bucket.Put(keyPolicy, raw)
	})
}

func (s *Store) GetPolicy(_ context.Context) (entities.Policy, error) {
	var policy entities.Policy
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketPolicy).Get(keyPolicy)
		if raw == nil {
			return domainerrors.ErrPolicyNotInitialized
		}
		return json.Unmarshal(raw, &policy)
	})
	if err != nil {
		return entities.Policy{}, err
	}
	if policy.SupportedCurrencies == nil {
		policy.SupportedCurrencies = make(map[string]bool)
	}
	return policy, nil
}

func (s *Store) SetCommissionRate(ctx context.Context, rateBps uint64, updatedAt time.Time) error {
	return s.mutate(func(policy *entities.Policy) {
		policy.CommissionRateBps = rateBps
		policy.UpdatedAt = updatedAt.UTC()
	})
}

func (s *Store) SetPaused(ctx context.Context, paused bool, updatedAt time.Time) error {
	return s.mutate(func(policy *entities.Policy) {
		policy.Paused = paused
		policy.UpdatedAt = updatedAt.UTC()
	})
}

func (s *Store) SetCurrencySupport(ctx context.Context, currency string, supported bool, updatedAt time.Time) error {
	currency = strings.TrimSpace(currency)
	return s.mutate(func(policy *entities.Policy) {
		if supported {
			policy.SupportedCurrencies[currency] = true
		} else {
			delete(policy.SupportedCurrencies, currency)
		}
		policy.UpdatedAt = updatedAt.UTC()
	})
}

func (s *Store) IsPaused(ctx context.Context) (bool, error) {
	policy, err := s.GetPolicy(ctx)
	if err != nil {
		return false, err
	}
	return policy.Paused, nil
}

func (s *Store) IsCurrencySupported(ctx context.Context, currency string) (bool, error) {
	policy, err := s.GetPolicy(ctx)
	if err != nil {
		return false, err
	}
	return policy.CurrencySupported(currency), nil
}

func (s *Store) CommissionRateBps(ctx context.Context) (uint64, error) {
	policy, err := s.GetPolicy(ctx)
	if err != nil {
		return 0, err
	}
	return policy.CommissionRateBps, nil
}

func (s *Store) TreasuryAddress(ctx context.Context) (string, error) {
	policy, err := s.GetPolicy(ctx)
	if err != nil {
		return "", err
	}
	return policy.TreasuryAddress, nil
}

func (s *Store) IsPrivileged(ctx context.Context, caller string) (bool, error) {
	policy, err := s.GetPolicy(ctx)
	if err != nil {
		return false, err
	}
	return policy.IsOwner(caller), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) mutate(apply func(*entities.Policy)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketPolicy)
		raw := bucket.Get(keyPolicy)
		if raw == nil {
			return domainerrors.ErrPolicyNotInitialized
		}
		var policy entities.Policy
		if err := json.Unmarshal(raw, &policy); err != nil {
			return err
		}
		if policy.SupportedCurrencies == nil {
			policy.SupportedCurrencies = make(map[string]bool)
		}
		apply(&policy)
		next, err := json.Marshal(policy)
		if err != nil {
			return err
		}
		return bucket.Put(keyPolicy, next)
	})
}
