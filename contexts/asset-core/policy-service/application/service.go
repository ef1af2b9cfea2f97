package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tessera/contexts/asset-core/policy-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/policy-service/domain/errors"
	"tessera/contexts/asset-core/policy-service/ports"
)

type Service struct {
	Repo   ports.PolicyRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// SetCommissionRate replaces the stored rate. Owner-only; a failed
// authorization or bound check mutates nothing.
func (s Service) SetCommissionRate(ctx context.Context, caller string, rateBps uint64) error {
	policy, err := s.authorize(ctx, caller)
	if err != nil {
		return err
	}
	if !entities.ValidCommissionRate(rateBps) {
		return domainerrors.ErrInvalidCommissionRate
	}
	if err := s.Repo.SetCommissionRate(ctx, rateBps, s.now()); err != nil {
		return err
	}
	resolveLogger(s.Logger).Info("commission rate updated",
		"event", "policy_commission_rate_updated",
		"module", "asset-core/policy-service",
		"layer", "application",
		"previous_rate_bps", policy.CommissionRateBps,
		"rate_bps", rateBps,
	)
	return nil
}

// AddSupportedCurrency is idempotent: adding an already-supported currency
// is a no-op, not an error.
func (s Service) AddSupportedCurrency(ctx context.Context, caller string, currency string) error {
	return s.setCurrencySupport(ctx, caller, currency, true)
}

// RemoveSupportedCurrency is idempotent: removing an unsupported currency
// is a no-op, not an error.
func (s Service) RemoveSupportedCurrency(ctx context.Context, caller string, currency string) error {
	return s.setCurrencySupport(ctx, caller, currency, false)
}

func (s Service) setCurrencySupport(ctx context.Context, caller string, currency string, supported bool) error {
	if _, err := s.authorize(ctx, caller); err != nil {
		return err
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return domainerrors.ErrInvalidCurrency
	}
	if err := s.Repo.SetCurrencySupport(ctx, currency, supported, s.now()); err != nil {
		return err
	}
	resolveLogger(s.Logger).Info("currency support updated",
		"event", "policy_currency_support_updated",
		"module", "asset-core/policy-service",
		"layer", "application",
		"currency", currency,
		"supported", supported,
	)
	return nil
}

// Pause blocks all purchase execution until Unpause.
func (s Service) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true)
}

func (s Service) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false)
}

func (s Service) setPaused(ctx context.Context, caller string, paused bool) error {
	if _, err := s.authorize(ctx, caller); err != nil {
		return err
	}
	if err := s.Repo.SetPaused(ctx, paused, s.now()); err != nil {
		return err
	}
	resolveLogger(s.Logger).Info("pause flag updated",
		"event", "policy_pause_updated",
		"module", "asset-core/policy-service",
		"layer", "application",
		"paused", paused,
	)
	return nil
}

// GetPolicy is a pure read, no authorization required.
func (s Service) GetPolicy(ctx context.Context) (entities.Policy, error) {
	return s.Repo.GetPolicy(ctx)
}

func (s Service) GetCommissionRate(ctx context.Context) (uint64, error) {
	policy, err := s.Repo.GetPolicy(ctx)
	if err != nil {
		return 0, err
	}
	return policy.CommissionRateBps, nil
}

func (s Service) IsCurrencySupported(ctx context.Context, currency string) (bool, error) {
	policy, err := s.Repo.GetPolicy(ctx)
	if err != nil {
		return false, err
	}
	return policy.CurrencySupported(currency), nil
}

func (s Service) IsPaused(ctx context.Context) (bool, error) {
	policy, err := s.Repo.GetPolicy(ctx)
	if err != nil {
		return false, err
	}
	return policy.Paused, nil
}

// IsPrivileged answers the privileged-principal check for sibling modules.
func (s Service) IsPrivileged(ctx context.Context, caller string) (bool, error) {
	policy, err := s.Repo.GetPolicy(ctx)
	if err != nil {
		return false, err
	}
	return policy.IsOwner(caller), nil
}

func (s Service) authorize(ctx context.Context, caller string) (entities.Policy, error) {
	policy, err := s.Repo.GetPolicy(ctx)
	if err != nil {
		return entities.Policy{}, err
	}
	if !policy.IsOwner(caller) {
		resolveLogger(s.Logger).Warn("admin operation rejected",
			"event", "policy_unauthorized",
			"module", "asset-core/policy-service",
			"layer", "application",
			"caller", caller,
		)
		return entities.Policy{}, domainerrors.ErrUnauthorized
	}
	return policy, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
