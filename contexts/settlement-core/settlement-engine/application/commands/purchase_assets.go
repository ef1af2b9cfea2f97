package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "tessera/contexts/settlement-core/settlement-engine/application"
	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	"tessera/contexts/settlement-core/settlement-engine/domain/services"
	"tessera/contexts/settlement-core/settlement-engine/ports"
)

const defaultIdempotencyTTL = 24 * time.Hour

type PurchaseAssetsCommand struct {
	Buyer          string
	Currency       string
	IdempotencyKey string
	Items          []entities.PurchaseItem
}

type PurchaseAssetsResult struct {
	Receipt  entities.SettlementReceipt
	Replayed bool
}

// PurchaseAssetsUseCase settles one batch purchase end to end: gate checks,
// pricing, fund movement, ownership commit, receipt. Serial enforces one
// settlement at a time so compensating transfers always see untouched
// balances.
type PurchaseAssetsUseCase struct {
	Ledger         ports.Ledger
	Policy         ports.PolicyReader
	Assets         ports.AssetReader
	Applier        ports.PurchaseApplier
	Settlements    ports.SettlementRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Serial         *sync.Mutex
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Execute runs the settlement workflow in this order:
// 1) input validation
// 2) idempotency replay
// 3) pause and currency gates
// 4) registration and pricing pass (no mutation)
// 5) commission from a single rate read
// 6) fund transfers, commission first, compensated on any failure
// 7) atomic ownership commit with owner re-verification
// 8) receipt and idempotency persistence.
func (u PurchaseAssetsUseCase) Execute(ctx context.Context, cmd PurchaseAssetsCommand) (PurchaseAssetsResult, error) {
	logger := application.ResolveLogger(u.Logger)

	buyer := strings.TrimSpace(cmd.Buyer)
	currency := strings.TrimSpace(cmd.Currency)
	if err := validateRequest(buyer, currency, cmd.Items); err != nil {
		return PurchaseAssetsResult{}, err
	}
	requestHash := hashRequest(buyer, currency, cmd.Items)

	if u.Serial != nil {
		u.Serial.Lock()
		defer u.Serial.Unlock()
	}

	now := u.Clock.Now().UTC()

	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key != "" && u.Idempotency != nil {
		record, found, err := u.Idempotency.Get(ctx, key, now)
		if err != nil {
			return PurchaseAssetsResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				logger.Warn("idempotency key reused with different payload",
					"event", "purchase_idempotency_conflict",
					"module", "settlement-core/settlement-engine",
					"layer", "application",
					"buyer", buyer,
				)
				return PurchaseAssetsResult{}, domainerrors.ErrIdempotencyConflict
			}
			receipt, err := u.Settlements.GetSettlement(ctx, record.SettlementID)
			if err != nil {
				return PurchaseAssetsResult{}, err
			}
			logger.Info("settlement replayed from idempotency record",
				"event", "purchase_replayed",
				"module", "settlement-core/settlement-engine",
				"layer", "application",
				"settlement_id", record.SettlementID,
				"buyer", buyer,
			)
			return PurchaseAssetsResult{Receipt: receipt, Replayed: true}, nil
		}
	}

	// Gates run before any funds move.
	paused, err := u.Policy.IsPaused(ctx)
	if err != nil {
		return PurchaseAssetsResult{}, err
	}
	if paused {
		return PurchaseAssetsResult{}, domainerrors.ErrSystemPaused
	}
	supported, err := u.Policy.IsCurrencySupported(ctx, currency)
	if err != nil {
		return PurchaseAssetsResult{}, err
	}
	if !supported {
		return PurchaseAssetsResult{}, domainerrors.ErrUnsupportedCurrency
	}

	// Validation and pricing pass in caller order; nothing mutates yet.
	prices := make([]uint64, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		state, found, err := u.Assets.GetAssetState(ctx, item.AssetID)
		if err != nil {
			return PurchaseAssetsResult{}, err
		}
		if !found || !state.Registered {
			return PurchaseAssetsResult{}, fmt.Errorf("asset %d: %w", item.AssetID, domainerrors.ErrUnregisteredAsset)
		}
		prices = append(prices, item.Price)
	}
	total, err := services.SumPrices(prices)
	if err != nil {
		return PurchaseAssetsResult{}, err
	}

	// Rate read once per batch so a concurrent policy change cannot split
	// the commission across two rates.
	rateBps, err := u.Policy.CommissionRateBps(ctx)
	if err != nil {
		return PurchaseAssetsResult{}, err
	}
	commission, err := services.Commission(total, rateBps)
	if err != nil {
		return PurchaseAssetsResult{}, err
	}
	treasury, err := u.Policy.TreasuryAddress(ctx)
	if err != nil {
		return PurchaseAssetsResult{}, err
	}

	settlementID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return PurchaseAssetsResult{}, err
	}

	applied, err := u.moveFunds(ctx, buyer, currency, treasury, commission, cmd.Items)
	if err != nil {
		u.rollbackFunds(ctx, logger, currency, applied)
		logger.Warn("settlement cancelled on transfer failure",
			"event", "purchase_transfer_failed",
			"module", "settlement-core/settlement-engine",
			"layer", "application",
			"settlement_id", settlementID,
			"buyer", buyer,
			"error", err.Error(),
		)
		return PurchaseAssetsResult{}, err
	}

	transfers, events, err := u.buildCommit(ctx, settlementID, buyer, currency, treasury, commission, rateBps, cmd.Items, now)
	if err != nil {
		u.rollbackFunds(ctx, logger, currency, applied)
		return PurchaseAssetsResult{}, err
	}

	// Ownership write boundary: the registry re-verifies every declared
	// seller and commits all reassignments plus the audit events together.
	if err := u.Applier.ApplyPurchase(ctx, transfers, events); err != nil {
		u.rollbackFunds(ctx, logger, currency, applied)
		if errors.Is(err, domainerrors.ErrInvalidAssetOwnership) || errors.Is(err, domainerrors.ErrUnregisteredAsset) {
			logger.Warn("settlement cancelled on ownership mismatch",
				"event", "purchase_ownership_mismatch",
				"module", "settlement-core/settlement-engine",
				"layer", "application",
				"settlement_id", settlementID,
				"buyer", buyer,
			)
			return PurchaseAssetsResult{}, err
		}
		logger.Error("ownership commit failed",
			"event", "purchase_commit_failed",
			"module", "settlement-core/settlement-engine",
			"layer", "application",
			"settlement_id", settlementID,
			"buyer", buyer,
			"error", err.Error(),
		)
		return PurchaseAssetsResult{}, err
	}

	receipt := entities.SettlementReceipt{
		SettlementID: settlementID,
		Buyer:        buyer,
		Currency:     currency,
		TotalPrice:   total,
		Commission:   commission,
		RateBps:      rateBps,
		Items:        receiptItems(cmd.Items),
		SettledAt:    now,
	}
	if err := u.Settlements.CreateSettlement(ctx, receipt); err != nil {
		logger.Error("receipt write failed after commit",
			"event", "purchase_receipt_write_failed",
			"module", "settlement-core/settlement-engine",
			"layer", "application",
			"settlement_id", settlementID,
			"error", err.Error(),
		)
		return PurchaseAssetsResult{}, err
	}
	if key != "" && u.Idempotency != nil {
		ttl := u.IdempotencyTTL
		if ttl <= 0 {
			ttl = defaultIdempotencyTTL
		}
		record := ports.IdempotencyRecord{
			Key:          key,
			RequestHash:  requestHash,
			SettlementID: settlementID,
			ExpiresAt:    now.Add(ttl),
		}
		if err := u.Idempotency.Put(ctx, record); err != nil {
			return PurchaseAssetsResult{}, err
		}
	}

	logger.Info("batch settled",
		"event", "purchase_settled",
		"module", "settlement-core/settlement-engine",
		"layer", "application",
		"settlement_id", settlementID,
		"buyer", buyer,
		"currency", currency,
		"items", len(cmd.Items),
		"total_price", total,
		"commission", commission,
	)
	return PurchaseAssetsResult{Receipt: receipt}, nil
}

type appliedTransfer struct {
	from   string
	to     string
	amount uint64
}

// moveFunds executes the commission leg then each item leg in caller order.
// It returns the transfers that succeeded so a later failure can compensate
// them.
func (u PurchaseAssetsUseCase) moveFunds(
	ctx context.Context,
	buyer string,
	currency string,
	treasury string,
	commission uint64,
	items []entities.PurchaseItem,
) ([]appliedTransfer, error) {
	applied := make([]appliedTransfer, 0, len(items)+1)

	if commission > 0 {
		if err := u.Ledger.Transfer(ctx, currency, buyer, treasury, commission); err != nil {
			return applied, &domainerrors.TransferError{
				ItemIndex: domainerrors.CommissionTransferIndex,
				From:      buyer,
				To:        treasury,
				Amount:    commission,
				Err:       err,
			}
		}
		applied = append(applied, appliedTransfer{from: buyer, to: treasury, amount: commission})
	}

	for index, item := range items {
		if item.Price == 0 {
			continue
		}
		if err := u.Ledger.Transfer(ctx, currency, buyer, item.Seller, item.Price); err != nil {
			return applied, &domainerrors.TransferError{
				ItemIndex: index,
				From:      buyer,
				To:        item.Seller,
				Amount:    item.Price,
				Err:       err,
			}
		}
		applied = append(applied, appliedTransfer{from: buyer, to: item.Seller, amount: item.Price})
	}
	return applied, nil
}

// rollbackFunds reverses applied transfers in reverse order. Under the
// serial settlement lock every payee still holds the amount just credited,
// so the reverse transfer cannot fail for funds.
func (u PurchaseAssetsUseCase) rollbackFunds(ctx context.Context, logger *slog.Logger, currency string, applied []appliedTransfer) {
	for i := len(applied) - 1; i >= 0; i-- {
		step := applied[i]
		if err := u.Ledger.Transfer(ctx, currency, step.to, step.from, step.amount); err != nil {
			logger.Error("compensating transfer failed",
				"event", "purchase_rollback_failed",
				"module", "settlement-core/settlement-engine",
				"layer", "application",
				"from", step.to,
				"to", step.from,
				"amount", step.amount,
				"error", err.Error(),
			)
		}
	}
}

func (u PurchaseAssetsUseCase) buildCommit(
	ctx context.Context,
	settlementID string,
	buyer string,
	currency string,
	treasury string,
	commission uint64,
	rateBps uint64,
	items []entities.PurchaseItem,
	now time.Time,
) ([]ports.OwnershipTransfer, ports.PurchaseEventSet, error) {
	transfers := make([]ports.OwnershipTransfer, 0, len(items))
	purchases := make([]ports.AssetPurchasedEvent, 0, len(items))
	for _, item := range items {
		eventID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return nil, ports.PurchaseEventSet{}, err
		}
		transfers = append(transfers, ports.OwnershipTransfer{
			AssetID:       item.AssetID,
			ExpectedOwner: item.Seller,
			NewOwner:      buyer,
		})
		purchases = append(purchases, ports.AssetPurchasedEvent{
			EventID:    eventID,
			AssetID:    item.AssetID,
			Buyer:      buyer,
			Seller:     item.Seller,
			Price:      item.Price,
			OccurredAt: now,
		})
	}
	commissionEventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return nil, ports.PurchaseEventSet{}, err
	}
	events := ports.PurchaseEventSet{
		Purchases: purchases,
		Commission: ports.CommissionChargedEvent{
			EventID:      commissionEventID,
			SettlementID: settlementID,
			Buyer:        buyer,
			Treasury:     treasury,
			Currency:     currency,
			Amount:       commission,
			RateBps:      rateBps,
			OccurredAt:   now,
		},
	}
	return transfers, events, nil
}

func validateRequest(buyer string, currency string, items []entities.PurchaseItem) error {
	if buyer == "" || currency == "" || len(items) == 0 {
		return domainerrors.ErrInvalidPurchaseRequest
	}
	seen := make(map[uint64]struct{}, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Seller) == "" {
			return domainerrors.ErrInvalidPurchaseRequest
		}
		if _, dup := seen[item.AssetID]; dup {
			return domainerrors.ErrInvalidPurchaseRequest
		}
		seen[item.AssetID] = struct{}{}
	}
	return nil
}

// hashRequest fingerprints the settle-relevant fields so idempotent retries
// can be told apart from key reuse.
func hashRequest(buyer string, currency string, items []entities.PurchaseItem) string {
	hasher := sha256.New()
	fmt.Fprintf(hasher, "%s|%s", buyer, currency)
	for _, item := range items {
		fmt.Fprintf(hasher, "|%d:%d:%s:%s", item.AssetID, item.Price, item.Seller, item.MetadataHash)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func receiptItems(items []entities.PurchaseItem) []entities.ReceiptItem {
	out := make([]entities.ReceiptItem, 0, len(items))
	for _, item := range items {
		out = append(out, entities.ReceiptItem{
			AssetID: item.AssetID,
			Price:   item.Price,
			Seller:  item.Seller,
		})
	}
	return out
}
