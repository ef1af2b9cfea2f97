package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	policymemory "tessera/contexts/asset-core/policy-service/adapters/memory"
	policyentities "tessera/contexts/asset-core/policy-service/domain/entities"
	registrymemory "tessera/contexts/asset-core/registry-service/adapters/memory"
	registryentities "tessera/contexts/asset-core/registry-service/domain/entities"
	registryports "tessera/contexts/asset-core/registry-service/ports"
	settlementmemory "tessera/contexts/settlement-core/settlement-engine/adapters/memory"
	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
)

const testCurrency = "USD"

type fixture struct {
	ledger   *settlementmemory.Ledger
	registry *registrymemory.Store
	policy   *policymemory.Store
	store    *settlementmemory.Store
	usecase  PurchaseAssetsUseCase
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	policyState := policyentities.DefaultPolicy("owner", "treasury", 500, now)
	policyState.SupportedCurrencies[testCurrency] = true
	policyStore := policymemory.NewStore(policyState)

	registryStore := registrymemory.NewStore()
	settlementStore := settlementmemory.NewStore()
	ledger := settlementmemory.NewLedger()

	return &fixture{
		ledger:   ledger,
		registry: registryStore,
		policy:   policyStore,
		store:    settlementStore,
		now:      now,
		usecase: PurchaseAssetsUseCase{
			Ledger:      ledger,
			Policy:      policyStore,
			Assets:      registryStore,
			Applier:     registryStore,
			Settlements: settlementStore,
			Idempotency: settlementStore,
			Clock:       settlementStore,
			IDGenerator: settlementStore,
			Serial:      &sync.Mutex{},
			Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	}
}

func (f *fixture) registerAsset(t *testing.T, assetID uint64, seller string, price uint64) {
	t.Helper()
	asset, ok := registryentities.NewAsset(assetID, seller, price, fmt.Sprintf("hash-%d", assetID), f.now)
	if !ok {
		t.Fatalf("asset %d construction rejected", assetID)
	}
	event := registryports.RegisteredEvent{
		EventID:    fmt.Sprintf("reg-%d", assetID),
		AssetID:    assetID,
		Seller:     seller,
		Price:      price,
		OccurredAt: f.now,
	}
	if err := f.registry.CreateAssetWithOutbox(context.Background(), asset, event); err != nil {
		t.Fatalf("registering asset %d: %v", assetID, err)
	}
}

func (f *fixture) ownerOf(t *testing.T, assetID uint64) string {
	t.Helper()
	state, found, err := f.registry.GetAssetState(context.Background(), assetID)
	if err != nil || !found {
		t.Fatalf("asset %d state lookup failed: found=%v err=%v", assetID, found, err)
	}
	return state.Owner
}

func threeItemBatch() []entities.PurchaseItem {
	return []entities.PurchaseItem{
		{AssetID: 1, Price: 100, Seller: "seller-1"},
		{AssetID: 2, Price: 250, Seller: "seller-2"},
		{AssetID: 3, Price: 150, Seller: "seller-3"},
	}
}

func (f *fixture) registerThree(t *testing.T) {
	t.Helper()
	f.registerAsset(t, 1, "seller-1", 100)
	f.registerAsset(t, 2, "seller-2", 250)
	f.registerAsset(t, 3, "seller-3", 150)
}

func TestPurchaseSettlesBatchWithExactPayouts(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)
	f.ledger.Mint(testCurrency, "buyer", 525)

	result, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:    "buyer",
		Currency: testCurrency,
		Items:    threeItemBatch(),
	})
	if err != nil {
		t.Fatalf("expected settlement to succeed, got %v", err)
	}

	receipt := result.Receipt
	if receipt.TotalPrice != 500 {
		t.Fatalf("expected total 500, got %d", receipt.TotalPrice)
	}
	if receipt.Commission != 25 {
		t.Fatalf("expected commission 25, got %d", receipt.Commission)
	}
	if receipt.RateBps != 500 {
		t.Fatalf("expected rate 500, got %d", receipt.RateBps)
	}
	if len(receipt.Items) != 3 {
		t.Fatalf("expected 3 receipt items, got %d", len(receipt.Items))
	}

	if got := f.ledger.BalanceOf(testCurrency, "buyer"); got != 0 {
		t.Fatalf("expected buyer drained to 0, got %d", got)
	}
	if got := f.ledger.BalanceOf(testCurrency, "treasury"); got != 25 {
		t.Fatalf("expected treasury 25, got %d", got)
	}
	for seller, want := range map[string]uint64{"seller-1": 100, "seller-2": 250, "seller-3": 150} {
		if got := f.ledger.BalanceOf(testCurrency, seller); got != want {
			t.Fatalf("expected %s paid %d, got %d", seller, want, got)
		}
	}
	for assetID := uint64(1); assetID <= 3; assetID++ {
		if owner := f.ownerOf(t, assetID); owner != "buyer" {
			t.Fatalf("expected asset %d owned by buyer, got %q", assetID, owner)
		}
	}

	persisted, err := f.store.GetSettlement(context.Background(), receipt.SettlementID)
	if err != nil {
		t.Fatalf("expected receipt persisted, got %v", err)
	}
	if persisted.TotalPrice != 500 {
		t.Fatalf("expected persisted total 500, got %d", persisted.TotalPrice)
	}
}

func TestPurchaseEmitsAuditEvents(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)
	f.ledger.Mint(testCurrency, "buyer", 525)

	_, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:    "buyer",
		Currency: testCurrency,
		Items:    threeItemBatch(),
	})
	if err != nil {
		t.Fatalf("expected settlement to succeed, got %v", err)
	}

	pending, err := f.registry.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("listing outbox: %v", err)
	}
	// 3 asset.registered + 3 asset.purchased + 1 commission.charged.
	if len(pending) != 7 {
		t.Fatalf("expected 7 outbox messages, got %d", len(pending))
	}
}

func TestPurchaseRollsBackWhenFundsRunOut(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)
	// Enough for commission (25) and item 1 (100), but not item 2 (250).
	f.ledger.Mint(testCurrency, "buyer", 200)

	_, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:    "buyer",
		Currency: testCurrency,
		Items:    threeItemBatch(),
	})
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds cause, got %v", err)
	}
	var transferErr *domainerrors.TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("expected TransferError, got %T", err)
	}
	if transferErr.ItemIndex != 1 {
		t.Fatalf("expected failure on item 1, got %d", transferErr.ItemIndex)
	}

	if got := f.ledger.BalanceOf(testCurrency, "buyer"); got != 200 {
		t.Fatalf("expected buyer balance restored to 200, got %d", got)
	}
	for _, account := range []string{"treasury", "seller-1", "seller-2", "seller-3"} {
		if got := f.ledger.BalanceOf(testCurrency, account); got != 0 {
			t.Fatalf("expected %s untouched, got %d", account, got)
		}
	}
	for assetID, seller := range map[uint64]string{1: "seller-1", 2: "seller-2", 3: "seller-3"} {
		if owner := f.ownerOf(t, assetID); owner != seller {
			t.Fatalf("expected asset %d still owned by %s, got %q", assetID, seller, owner)
		}
	}
}

func TestPurchaseRejectedWhenPaused(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)
	f.ledger.Mint(testCurrency, "buyer", 525)
	if err := f.policy.SetPaused(context.Background(), true, f.now); err != nil {
		t.Fatalf("pausing: %v", err)
	}

	_, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:    "buyer",
		Currency: testCurrency,
		Items:    threeItemBatch(),
	})
	if !errors.Is(err, domainerrors.ErrSystemPaused) {
		t.Fatalf("expected paused rejection, got %v", err)
	}
	if got := f.ledger.BalanceOf(testCurrency, "buyer"); got != 525 {
		t.Fatalf("expected buyer balance untouched, got %d", got)
	}
	if owner := f.ownerOf(t, 1); owner != "seller-1" {
		t.Fatalf("expected ownership untouched, got %q", owner)
	}
}

func TestPurchaseRejectedForUnsupportedCurrency(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)
	f.ledger.Mint(testCurrency, "buyer", 525)

	_, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:    "buyer",
		Currency: "EUR",
		Items:    threeItemBatch(),
	})
	if !errors.Is(err, domainerrors.ErrUnsupportedCurrency) {
		t.Fatalf("expected unsupported currency, got %v", err)
	}
}

func TestPurchaseRejectedForUnregisteredAsset(t *testing.T) {
	f := newFixture(t)
	f.registerAsset(t, 1, "seller-1", 100)
	f.ledger.Mint(testCurrency, "buyer", 1000)

	_, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:    "buyer",
		Currency: testCurrency,
		Items: []entities.PurchaseItem{
			{AssetID: 1, Price: 100, Seller: "seller-1"},
			{AssetID: 99, Price: 50, Seller: "seller-2"},
		},
	})
	if !errors.Is(err, domainerrors.ErrUnregisteredAsset) {
		t.Fatalf("expected unregistered asset, got %v", err)
	}
	if got := f.ledger.BalanceOf(testCurrency, "buyer"); got != 1000 {
		t.Fatalf("expected buyer balance untouched, got %d", got)
	}
}

func TestPurchaseRollsBackOnStaleOwnership(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)
	f.ledger.Mint(testCurrency, "buyer", 525)

	// Asset 2 changes hands after the buyer composed the batch; the declared
	// seller is no longer the owner at commit time.
	if err := f.registry.SetOwner(context.Background(), 2, "interloper"); err != nil {
		t.Fatalf("reassigning owner: %v", err)
	}

	_, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:    "buyer",
		Currency: testCurrency,
		Items:    threeItemBatch(),
	})
	if !errors.Is(err, domainerrors.ErrInvalidAssetOwnership) {
		t.Fatalf("expected stale ownership rejection, got %v", err)
	}

	if got := f.ledger.BalanceOf(testCurrency, "buyer"); got != 525 {
		t.Fatalf("expected buyer refunded in full, got %d", got)
	}
	for _, account := range []string{"treasury", "seller-1", "seller-2", "seller-3"} {
		if got := f.ledger.BalanceOf(testCurrency, account); got != 0 {
			t.Fatalf("expected %s refunded, got %d", account, got)
		}
	}
	if owner := f.ownerOf(t, 1); owner != "seller-1" {
		t.Fatalf("expected asset 1 unchanged, got %q", owner)
	}
	if owner := f.ownerOf(t, 2); owner != "interloper" {
		t.Fatalf("expected asset 2 kept by interloper, got %q", owner)
	}
}

func TestPurchaseRejectsPriceOverflow(t *testing.T) {
	f := newFixture(t)
	f.registerAsset(t, 1, "seller-1", 1)
	f.registerAsset(t, 2, "seller-2", 1)
	f.ledger.Mint(testCurrency, "buyer", 1000)

	_, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:    "buyer",
		Currency: testCurrency,
		Items: []entities.PurchaseItem{
			{AssetID: 1, Price: math.MaxUint64, Seller: "seller-1"},
			{AssetID: 2, Price: 1, Seller: "seller-2"},
		},
	})
	if !errors.Is(err, domainerrors.ErrArithmeticOverflow) {
		t.Fatalf("expected overflow rejection, got %v", err)
	}
	if got := f.ledger.BalanceOf(testCurrency, "buyer"); got != 1000 {
		t.Fatalf("expected buyer balance untouched, got %d", got)
	}
}

func TestPurchaseReplaysOnSameIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)
	f.ledger.Mint(testCurrency, "buyer", 525)

	cmd := PurchaseAssetsCommand{
		Buyer:          "buyer",
		Currency:       testCurrency,
		IdempotencyKey: "key-1",
		Items:          threeItemBatch(),
	}
	first, err := f.usecase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}
	second, err := f.usecase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Replayed {
		t.Fatal("expected replay to be flagged")
	}
	if second.Receipt.SettlementID != first.Receipt.SettlementID {
		t.Fatalf("expected same settlement id, got %q vs %q", second.Receipt.SettlementID, first.Receipt.SettlementID)
	}
	// Replay must not move funds again.
	if got := f.ledger.BalanceOf(testCurrency, "treasury"); got != 25 {
		t.Fatalf("expected single commission charge, got %d", got)
	}
}

func TestPurchaseIdempotencyKeyConflict(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)
	f.ledger.Mint(testCurrency, "buyer", 1000)

	_, err := f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:          "buyer",
		Currency:       testCurrency,
		IdempotencyKey: "key-1",
		Items:          threeItemBatch(),
	})
	if err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}

	_, err = f.usecase.Execute(context.Background(), PurchaseAssetsCommand{
		Buyer:          "buyer",
		Currency:       testCurrency,
		IdempotencyKey: "key-1",
		Items: []entities.PurchaseItem{
			{AssetID: 1, Price: 100, Seller: "seller-1"},
		},
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestPurchaseRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	f.registerThree(t)

	cases := map[string]PurchaseAssetsCommand{
		"empty batch":    {Buyer: "buyer", Currency: testCurrency},
		"empty buyer":    {Currency: testCurrency, Items: threeItemBatch()},
		"empty currency": {Buyer: "buyer", Items: threeItemBatch()},
		"blank seller": {Buyer: "buyer", Currency: testCurrency, Items: []entities.PurchaseItem{
			{AssetID: 1, Price: 100, Seller: "  "},
		}},
		"duplicate asset": {Buyer: "buyer", Currency: testCurrency, Items: []entities.PurchaseItem{
			{AssetID: 1, Price: 100, Seller: "seller-1"},
			{AssetID: 1, Price: 100, Seller: "seller-1"},
		}},
	}
	for name, cmd := range cases {
		if _, err := f.usecase.Execute(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInvalidPurchaseRequest) {
			t.Fatalf("%s: expected invalid request, got %v", name, err)
		}
	}
}
