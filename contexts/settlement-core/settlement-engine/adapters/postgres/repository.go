package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	"tessera/contexts/settlement-core/settlement-engine/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists settlement receipts and idempotency records with gorm.
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

func (r *Repository) CreateSettlement(ctx context.Context, receipt entities.SettlementReceipt) error {
	row := receiptModelFromEntity(receipt)
	items := itemModelsFromEntity(receipt)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (r *Repository) GetSettlement(ctx context.Context, settlementID string) (entities.SettlementReceipt, error) {
	var row receiptModel
	err := r.db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SettlementReceipt{}, domainerrors.ErrSettlementNotFound
		}
		return entities.SettlementReceipt{}, err
	}
	var items []itemModel
	err = r.db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Order("position ASC").
		Find(&items).
		Error
	if err != nil {
		return entities.SettlementReceipt{}, err
	}
	return row.toEntity(items), nil
}

func (r *Repository) ListSettlementsByBuyer(ctx context.Context, buyer string, limit int, offset int) ([]entities.SettlementReceipt, error) {
	var rows []receiptModel
	err := r.db.WithContext(ctx).
		Where("buyer = ?", buyer).
		Order("settled_at ASC, settlement_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entities.SettlementReceipt{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.SettlementID)
	}
	var items []itemModel
	err = r.db.WithContext(ctx).
		Where("settlement_id IN ?", ids).
		Order("position ASC").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]itemModel, len(rows))
	for _, item := range items {
		grouped[item.SettlementID] = append(grouped[item.SettlementID], item)
	}

	receipts := make([]entities.SettlementReceipt, 0, len(rows))
	for _, row := range rows {
		receipts = append(receipts, row.toEntity(grouped[row.SettlementID]))
	}
	return receipts, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:          row.Key,
		RequestHash:  row.RequestHash,
		SettlementID: row.SettlementID,
		ExpiresAt:    row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:          record.Key,
		RequestHash:  record.RequestHash,
		SettlementID: record.SettlementID,
		ExpiresAt:    record.ExpiresAt.UTC(),
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

// SystemClock is the production Clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator is the production IDGenerator implementation.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type receiptModel struct {
	SettlementID string    `gorm:"column:settlement_id;primaryKey"`
	Buyer        string    `gorm:"column:buyer;index"`
	Currency     string    `gorm:"column:currency"`
	TotalPrice   uint64    `gorm:"column:total_price"`
	Commission   uint64    `gorm:"column:commission"`
	RateBps      uint64    `gorm:"column:rate_bps"`
	SettledAt    time.Time `gorm:"column:settled_at"`
}

func (receiptModel) TableName() string {
	return "settlement_receipts"
}

func receiptModelFromEntity(receipt entities.SettlementReceipt) receiptModel {
	return receiptModel{
		SettlementID: receipt.SettlementID,
		Buyer:        receipt.Buyer,
		Currency:     receipt.Currency,
		TotalPrice:   receipt.TotalPrice,
		Commission:   receipt.Commission,
		RateBps:      receipt.RateBps,
		SettledAt:    receipt.SettledAt.UTC(),
	}
}

func (m receiptModel) toEntity(items []itemModel) entities.SettlementReceipt {
	receiptItems := make([]entities.ReceiptItem, 0, len(items))
	for _, item := range items {
		receiptItems = append(receiptItems, entities.ReceiptItem{
			AssetID: item.AssetID,
			Price:   item.Price,
			Seller:  item.Seller,
		})
	}
	return entities.SettlementReceipt{
		SettlementID: m.SettlementID,
		Buyer:        m.Buyer,
		Currency:     m.Currency,
		TotalPrice:   m.TotalPrice,
		Commission:   m.Commission,
		RateBps:      m.RateBps,
		Items:        receiptItems,
		SettledAt:    m.SettledAt.UTC(),
	}
}

type itemModel struct {
	SettlementID string `gorm:"column:settlement_id;primaryKey"`
	Position     int    `gorm:"column:position;primaryKey"`
	AssetID      uint64 `gorm:"column:asset_id"`
	Price        uint64 `gorm:"column:price"`
	Seller       string `gorm:"column:seller"`
}

func (itemModel) TableName() string {
	return "settlement_receipt_items"
}

func itemModelsFromEntity(receipt entities.SettlementReceipt) []itemModel {
	items := make([]itemModel, 0, len(receipt.Items))
	for index, item := range receipt.Items {
		items = append(items, itemModel{
			SettlementID: receipt.SettlementID,
			Position:     index,
			AssetID:      item.AssetID,
			Price:        item.Price,
			Seller:       item.Seller,
		})
	}
	return items
}

type idempotencyModel struct {
	Key          string    `gorm:"column:key;primaryKey"`
	RequestHash  string    `gorm:"column:request_hash"`
	SettlementID string    `gorm:"column:settlement_id"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "settlement_idempotency"
}
