package commands

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"tessera/contexts/asset-core/registry-service/adapters/memory"
	domainerrors "tessera/contexts/asset-core/registry-service/domain/errors"
)

type staticAuthorizer struct {
	owner string
}

func (a staticAuthorizer) IsPrivileged(_ context.Context, caller string) (bool, error) {
	return caller == a.owner, nil
}

func newUseCase(store *memory.Store) RegisterAssetUseCase {
	return RegisterAssetUseCase{
		Assets:      store,
		Authorizer:  staticAuthorizer{owner: "owner"},
		Clock:       store,
		IDGenerator: store,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRegisterAssetPersistsAndEmitsEvent(t *testing.T) {
	store := memory.NewStore()
	usecase := newUseCase(store)

	result, err := usecase.Execute(context.Background(), RegisterAssetCommand{
		Caller:       "owner",
		AssetID:      7,
		Seller:       "seller-1",
		Price:        1200,
		MetadataHash: "abc123",
	})
	if err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}
	if result.Asset.Owner != "seller-1" {
		t.Fatalf("expected initial owner to be the seller, got %q", result.Asset.Owner)
	}
	if !result.Asset.Registered {
		t.Fatal("expected registered flag set")
	}

	stored, err := store.GetAsset(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected stored asset, got %v", err)
	}
	if stored.MetadataHash != "abc123" {
		t.Fatalf("expected metadata hash persisted, got %q", stored.MetadataHash)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("listing outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox message, got %d", len(pending))
	}
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decoding outbox payload: %v", err)
	}
	if envelope.EventType != "asset.registered" {
		t.Fatalf("expected asset.registered event, got %q", envelope.EventType)
	}
}

func TestRegisterAssetDuplicateRejected(t *testing.T) {
	store := memory.NewStore()
	usecase := newUseCase(store)

	first := RegisterAssetCommand{
		Caller:       "owner",
		AssetID:      7,
		Seller:       "seller-1",
		Price:        1200,
		MetadataHash: "abc123",
	}
	if _, err := usecase.Execute(context.Background(), first); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	_, err := usecase.Execute(context.Background(), RegisterAssetCommand{
		Caller:       "owner",
		AssetID:      7,
		Seller:       "someone-else",
		Price:        9999,
		MetadataHash: "other",
	})
	if !errors.Is(err, domainerrors.ErrAssetAlreadyRegistered) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	stored, err := store.GetAsset(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected original asset intact, got %v", err)
	}
	if stored.Seller != "seller-1" || stored.Price != 1200 {
		t.Fatalf("expected original record unchanged, got seller=%q price=%d", stored.Seller, stored.Price)
	}
}

func TestRegisterAssetUnauthorizedIsNoOp(t *testing.T) {
	store := memory.NewStore()
	usecase := newUseCase(store)

	_, err := usecase.Execute(context.Background(), RegisterAssetCommand{
		Caller:       "stranger",
		AssetID:      7,
		Seller:       "seller-1",
		Price:        1200,
		MetadataHash: "abc123",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized rejection, got %v", err)
	}

	exists, err := store.AssetExists(context.Background(), 7)
	if err != nil {
		t.Fatalf("existence check failed: %v", err)
	}
	if exists {
		t.Fatal("expected no asset persisted on unauthorized call")
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("listing outbox: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox, got %d messages", len(pending))
	}
}

func TestRegisterAssetValidatesInput(t *testing.T) {
	store := memory.NewStore()
	usecase := newUseCase(store)

	cases := map[string]RegisterAssetCommand{
		"blank seller": {Caller: "owner", AssetID: 1, Seller: "  ", MetadataHash: "abc"},
		"blank hash":   {Caller: "owner", AssetID: 1, Seller: "seller-1", MetadataHash: ""},
	}
	for name, cmd := range cases {
		if _, err := usecase.Execute(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInvalidRegistration) {
			t.Fatalf("%s: expected invalid registration, got %v", name, err)
		}
	}
}
