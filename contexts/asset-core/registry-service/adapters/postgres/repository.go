package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tessera/contexts/asset-core/registry-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/registry-service/domain/errors"
	"tessera/contexts/asset-core/registry-service/ports"
	settlementerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	settlementports "tessera/contexts/settlement-core/settlement-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

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

func (r *Repository) CreateAssetWithOutbox(ctx context.Context, asset entities.Asset, event ports.RegisteredEvent) error {
	envelope, err := ports.BuildRegisteredEnvelope(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := assetModelFromEntity(asset)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAssetAlreadyRegistered
			}
			return err
		}

		outboxRow := outboxModel{
			OutboxID:     event.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    event.OccurredAt.UTC(),
		}
		return tx.Create(&outboxRow).Error
	})
}

func (r *Repository) GetAsset(ctx context.Context, assetID uint64) (entities.Asset, error) {
	var row assetModel
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Asset{}, domainerrors.ErrAssetNotFound
		}
		return entities.Asset{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) AssetExists(ctx context.Context, assetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&assetModel{}).
		Where("asset_id = ?", assetID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListAssets(ctx context.Context, cursor string, limit int) ([]entities.Asset, string, error) {
	if limit <= 0 {
		limit = 20
	}
	offset := decodeCursor(cursor)

	var rows []assetModel
	err := r.db.WithContext(ctx).
		Order("asset_id ASC").
		Offset(offset).
		Limit(limit + 1).
		Find(&rows).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}
	items := make([]entities.Asset, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) GetAssetState(ctx context.Context, assetID uint64) (settlementports.AssetState, bool, error) {
	var row assetModel
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return settlementports.AssetState{}, false, nil
		}
		return settlementports.AssetState{}, false, err
	}
	return settlementports.AssetState{
		AssetID:    row.AssetID,
		Owner:      row.Owner,
		Registered: row.Registered,
	}, true, nil
}

// ApplyPurchase runs the ownership commit in one transaction: every
// reassignment is an owner-conditional UPDATE, so a stale seller rolls the
// whole batch back.
func (r *Repository) ApplyPurchase(
	ctx context.Context,
	transfers []settlementports.OwnershipTransfer,
	events settlementports.PurchaseEventSet,
) error {
	updatedAt := events.Commission.OccurredAt
	if len(events.Purchases) > 0 {
		updatedAt = events.Purchases[0].OccurredAt
	}
	envelopes, err := settlementports.PurchaseEnvelopes(events)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, transfer := range transfers {
			result := tx.Model(&assetModel{}).
				Where("asset_id = ? AND owner = ?", transfer.AssetID, transfer.ExpectedOwner).
				Updates(map[string]any{
					"owner":      transfer.NewOwner,
					"updated_at": updatedAt.UTC(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				exists := int64(0)
				if err := tx.Model(&assetModel{}).
					Where("asset_id = ?", transfer.AssetID).
					Count(&exists).
					Error; err != nil {
					return err
				}
				if exists == 0 {
					return settlementerrors.ErrUnregisteredAsset
				}
				return settlementerrors.ErrInvalidAssetOwnership
			}
		}

		for _, envelope := range envelopes {
			if err := createOutboxRow(tx, envelope); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAssetNotFound
	}
	return nil
}

// SystemClock is the production Clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator is the production IDGenerator implementation.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type assetModel struct {
	AssetID      uint64    `gorm:"column:asset_id;primaryKey"`
	Seller       string    `gorm:"column:seller"`
	Owner        string    `gorm:"column:owner"`
	Price        uint64    `gorm:"column:price"`
	MetadataHash string    `gorm:"column:metadata_hash"`
	Registered   bool      `gorm:"column:registered"`
	RegisteredAt time.Time `gorm:"column:registered_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (assetModel) TableName() string {
	return "registry_assets"
}

func assetModelFromEntity(asset entities.Asset) assetModel {
	return assetModel{
		AssetID:      asset.AssetID,
		Seller:       asset.Seller,
		Owner:        asset.Owner,
		Price:        asset.Price,
		MetadataHash: asset.MetadataHash,
		Registered:   asset.Registered,
		RegisteredAt: asset.RegisteredAt.UTC(),
		UpdatedAt:    asset.UpdatedAt.UTC(),
	}
}

func (m assetModel) toEntity() entities.Asset {
	return entities.Asset{
		AssetID:      m.AssetID,
		Seller:       m.Seller,
		Owner:        m.Owner,
		Price:        m.Price,
		MetadataHash: m.MetadataHash,
		Registered:   m.Registered,
		RegisteredAt: m.RegisteredAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "registry_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func createOutboxRow(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	return tx.Create(&row).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
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
