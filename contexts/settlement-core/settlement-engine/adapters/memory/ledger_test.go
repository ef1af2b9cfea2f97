package memory

import (
	"context"
	"errors"
	"testing"

	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
)

func TestLedgerTransferMovesFunds(t *testing.T) {
	ledger := NewLedger()
	ledger.Mint("USD", "alice", 100)

	if err := ledger.Transfer(context.Background(), "USD", "alice", "bob", 60); err != nil {
		t.Fatalf("expected transfer to succeed, got %v", err)
	}
	if got := ledger.BalanceOf("USD", "alice"); got != 40 {
		t.Fatalf("expected alice 40, got %d", got)
	}
	if got := ledger.BalanceOf("USD", "bob"); got != 60 {
		t.Fatalf("expected bob 60, got %d", got)
	}
}

func TestLedgerRejectsOverdraft(t *testing.T) {
	ledger := NewLedger()
	ledger.Mint("USD", "alice", 10)

	err := ledger.Transfer(context.Background(), "USD", "alice", "bob", 11)
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := ledger.BalanceOf("USD", "alice"); got != 10 {
		t.Fatalf("expected alice untouched, got %d", got)
	}
}

func TestLedgerCurrenciesAreIsolated(t *testing.T) {
	ledger := NewLedger()
	ledger.Mint("USD", "alice", 100)

	err := ledger.Transfer(context.Background(), "EUR", "alice", "bob", 1)
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected no EUR balance, got %v", err)
	}
}

func TestLedgerZeroAndSelfTransfersAreNoOps(t *testing.T) {
	ledger := NewLedger()
	ledger.Mint("USD", "alice", 100)

	if err := ledger.Transfer(context.Background(), "USD", "alice", "bob", 0); err != nil {
		t.Fatalf("expected zero transfer to succeed, got %v", err)
	}
	if err := ledger.Transfer(context.Background(), "USD", "alice", "alice", 50); err != nil {
		t.Fatalf("expected self transfer to succeed, got %v", err)
	}
	if got := ledger.BalanceOf("USD", "alice"); got != 100 {
		t.Fatalf("expected alice unchanged, got %d", got)
	}
}
