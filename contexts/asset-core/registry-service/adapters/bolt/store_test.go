package boltadapter

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"tessera/contexts/asset-core/registry-service/domain/entities"
	domainerrors "tessera/contexts/asset-core/registry-service/domain/errors"
	"tessera/contexts/asset-core/registry-service/ports"
	settlementerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	settlementports "tessera/contexts/settlement-core/settlement-engine/ports"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	db, err := bolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store
}

func registerTestAsset(t *testing.T, store *Store, assetID uint64, seller string, price uint64) entities.Asset {
	t.Helper()
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	asset, ok := entities.NewAsset(assetID, seller, price, fmt.Sprintf("hash-%d", assetID), now)
	require.True(t, ok)
	err := store.CreateAssetWithOutbox(context.Background(), asset, ports.RegisteredEvent{
		EventID:    fmt.Sprintf("reg-%d", assetID),
		AssetID:    assetID,
		Seller:     seller,
		Price:      price,
		OccurredAt: now,
	})
	require.NoError(t, err)
	return asset
}

func TestBoltRegisterRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := registerTestAsset(t, store, 7, "seller-1", 1200)

	got, err := store.GetAsset(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, want.Seller, got.Seller)
	require.Equal(t, want.Price, got.Price)
	require.Equal(t, want.MetadataHash, got.MetadataHash)
	require.True(t, got.Registered)

	exists, err := store.AssetExists(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, exists)

	_, err = store.GetAsset(context.Background(), 8)
	require.ErrorIs(t, err, domainerrors.ErrAssetNotFound)
}

func TestBoltDuplicateRegistrationRejected(t *testing.T) {
	store := newTestStore(t)
	registerTestAsset(t, store, 7, "seller-1", 1200)

	asset, ok := entities.NewAsset(7, "someone-else", 5, "other", time.Now().UTC())
	require.True(t, ok)
	err := store.CreateAssetWithOutbox(context.Background(), asset, ports.RegisteredEvent{EventID: "dup"})
	require.ErrorIs(t, err, domainerrors.ErrAssetAlreadyRegistered)

	got, err := store.GetAsset(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "seller-1", got.Seller)
}

func TestBoltApplyPurchaseReassignsAndAppendsEvents(t *testing.T) {
	store := newTestStore(t)
	registerTestAsset(t, store, 1, "seller-1", 100)
	registerTestAsset(t, store, 2, "seller-2", 250)

	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	err := store.ApplyPurchase(context.Background(),
		[]settlementports.OwnershipTransfer{
			{AssetID: 1, ExpectedOwner: "seller-1", NewOwner: "buyer"},
			{AssetID: 2, ExpectedOwner: "seller-2", NewOwner: "buyer"},
		},
		settlementports.PurchaseEventSet{
			Purchases: []settlementports.AssetPurchasedEvent{
				{EventID: "p-1", AssetID: 1, Buyer: "buyer", Seller: "seller-1", Price: 100, OccurredAt: now},
				{EventID: "p-2", AssetID: 2, Buyer: "buyer", Seller: "seller-2", Price: 250, OccurredAt: now},
			},
			Commission: settlementports.CommissionChargedEvent{
				EventID: "c-1", SettlementID: "s-1", Buyer: "buyer",
				Treasury: "treasury", Currency: "USD", Amount: 17, RateBps: 500, OccurredAt: now,
			},
		},
	)
	require.NoError(t, err)

	for _, assetID := range []uint64{1, 2} {
		state, found, err := store.GetAssetState(context.Background(), assetID)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "buyer", state.Owner)
	}

	// 2 registrations + 2 purchases + 1 commission, in append order.
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 5)
	require.Equal(t, "asset.purchased", pending[2].EventType)
	require.Equal(t, "commission.charged", pending[4].EventType)
}

func TestBoltApplyPurchaseMismatchMutatesNothing(t *testing.T) {
	store := newTestStore(t)
	registerTestAsset(t, store, 1, "seller-1", 100)
	registerTestAsset(t, store, 2, "seller-2", 250)
	require.NoError(t, store.SetOwner(context.Background(), 2, "interloper"))

	now := time.Now().UTC()
	err := store.ApplyPurchase(context.Background(),
		[]settlementports.OwnershipTransfer{
			{AssetID: 1, ExpectedOwner: "seller-1", NewOwner: "buyer"},
			{AssetID: 2, ExpectedOwner: "seller-2", NewOwner: "buyer"},
		},
		settlementports.PurchaseEventSet{
			Purchases: []settlementports.AssetPurchasedEvent{
				{EventID: "p-1", AssetID: 1, OccurredAt: now},
				{EventID: "p-2", AssetID: 2, OccurredAt: now},
			},
			Commission: settlementports.CommissionChargedEvent{EventID: "c-1", OccurredAt: now},
		},
	)
	require.ErrorIs(t, err, settlementerrors.ErrInvalidAssetOwnership)

	state, _, err := store.GetAssetState(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "seller-1", state.Owner)

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
}

func TestBoltMarkOutboxSentRemovesFromPending(t *testing.T) {
	store := newTestStore(t)
	registerTestAsset(t, store, 1, "seller-1", 100)
	registerTestAsset(t, store, 2, "seller-2", 250)

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, store.MarkOutboxSent(context.Background(), pending[0].OutboxID, time.Now().UTC()))

	pending, err = store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "reg-2", pending[0].OutboxID)
}

func TestBoltListAssetsPaginates(t *testing.T) {
	store := newTestStore(t)
	for id := uint64(1); id <= 5; id++ {
		registerTestAsset(t, store, id, fmt.Sprintf("seller-%d", id), id*10)
	}

	page, cursor, err := store.ListAssets(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(1), page[0].AssetID)
	require.NotEmpty(t, cursor)

	page, cursor, err = store.ListAssets(context.Background(), cursor, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(3), page[0].AssetID)
	require.NotEmpty(t, cursor)

	page, cursor, err = store.ListAssets(context.Background(), cursor, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, uint64(5), page[0].AssetID)
	require.Empty(t, cursor)
}
