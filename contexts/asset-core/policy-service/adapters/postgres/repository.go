package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tessera/contexts/asset-core/policy-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/policy-service/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// policyRowID pins the singleton policy row.
const policyRowID = 1

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// EnsurePolicy seeds the singleton row when absent. Existing state wins so
// restarts never reset admin-applied configuration.
func (r *Repository) EnsurePolicy(ctx context.Context, initial entities.Policy) error {
	row := policyModelFromEntity(initial)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) GetPolicy(ctx context.Context) (entities.Policy, error) {
	var row policyModel
	err := r.db.WithContext(ctx).
		Where("id = ?", policyRowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, domainerrors.ErrPolicyNotInitialized
		}
		return entities.Policy{}, err
	}

	var currencies []currencyModel
	if err := r.db.WithContext(ctx).Find(&currencies).Error; err != nil {
		return entities.Policy{}, err
	}
	return row.toEntity(currencies), nil
}

func (r *Repository) SetCommissionRate(ctx context.Context, rateBps uint64, updatedAt time.Time) error {
	return r.updatePolicy(ctx, map[string]any{
		"commission_rate_bps": rateBps,
		"updated_at":          updatedAt.UTC(),
	})
}

func (r *Repository) SetPaused(ctx context.Context, paused bool, updatedAt time.Time) error {
	return r.updatePolicy(ctx, map[string]any{
		"paused":     paused,
		"updated_at": updatedAt.UTC(),
	})
}

func (r *Repository) SetCurrencySupport(ctx context.Context, currency string, supported bool, updatedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if supported {
			row := currencyModel{Currency: currency, AddedAt: updatedAt.UTC()}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "currency"}},
				DoNothing: true,
			}).Create(&row).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("currency = ?", currency).
				Delete(&currencyModel{}).
				Error; err != nil {
				return err
			}
		}
		result := tx.Model(&policyModel{}).
			Where("id = ?", policyRowID).
			Update("updated_at", updatedAt.UTC())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrPolicyNotInitialized
		}
		return nil
	})
}

func (r *Repository) IsPaused(ctx context.Context) (bool, error) {
	policy, err := r.GetPolicy(ctx)
	if err != nil {
		return false, err
	}
	return policy.Paused, nil
}

func (r *Repository) IsCurrencySupported(ctx context.Context, currency string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&currencyModel{}).
		Where("currency = ?", currency).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CommissionRateBps(ctx context.Context) (uint64, error) {
	policy, err := r.GetPolicy(ctx)
	if err != nil {
		return 0, err
	}
	return policy.CommissionRateBps, nil
}

func (r *Repository) TreasuryAddress(ctx context.Context) (string, error) {
	policy, err := r.GetPolicy(ctx)
	if err != nil {
		return "", err
	}
	return policy.TreasuryAddress, nil
}

func (r *Repository) IsPrivileged(ctx context.Context, caller string) (bool, error) {
	policy, err := r.GetPolicy(ctx)
	if err != nil {
		return false, err
	}
	return policy.IsOwner(caller), nil
}

func (r *Repository) updatePolicy(ctx context.Context, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&policyModel{}).
		Where("id = ?", policyRowID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPolicyNotInitialized
	}
	return nil
}

// SystemClock is the production Clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type policyModel struct {
	ID                int       `gorm:"column:id;primaryKey"`
	OwnerAddress      string    `gorm:"column:owner_address"`
	TreasuryAddress   string    `gorm:"column:treasury_address"`
	CommissionRateBps uint64    `gorm:"column:commission_rate_bps"`
	Paused            bool      `gorm:"column:paused"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (policyModel) TableName() string {
	return "settlement_policy"
}

func policyModelFromEntity(policy entities.Policy) policyModel {
	return policyModel{
		ID:                policyRowID,
		OwnerAddress:      policy.OwnerAddress,
		TreasuryAddress:   policy.TreasuryAddress,
		CommissionRateBps: policy.CommissionRateBps,
		Paused:            policy.Paused,
		UpdatedAt:         policy.UpdatedAt.UTC(),
	}
}

func (m policyModel) toEntity(currencies []currencyModel) entities.Policy {
	supported := make(map[string]bool, len(currencies))
	for _, row := range currencies {
		supported[row.Currency] = true
	}
	return entities.Policy{
		OwnerAddress:        m.OwnerAddress,
		TreasuryAddress:     m.TreasuryAddress,
		CommissionRateBps:   m.CommissionRateBps,
		Paused:              m.Paused,
		SupportedCurrencies: supported,
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

type currencyModel struct {
	Currency string    `gorm:"column:currency;primaryKey"`
	AddedAt  time.Time `gorm:"column:added_at"`
}

func (currencyModel) TableName() string {
	return "settlement_policy_currencies"
}
