package memory

import (
	"context"
	"fmt"
	"sync"

	domainerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
)

// Ledger is an in-process value ledger keyed by currency then address. It
// stands in for the external settlement rail in local and test wiring.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]map[string]uint64
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]map[string]uint64)}
}

func (l *Ledger) Transfer(_ context.Context, currency string, from string, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount == 0 || from == to {
		return nil
	}
	accounts := l.currencyLocked(currency)
	if accounts[from] < amount {
		return fmt.Errorf("%s balance %d below transfer of %d: %w", from, accounts[from], amount, domainerrors.ErrInsufficientFunds)
	}
	accounts[from] -= amount
	accounts[to] += amount
	return nil
}

// Mint credits an address out of thin air. Test and bootstrap seeding only.
func (l *Ledger) Mint(currency string, address string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currencyLocked(currency)[address] += amount
}

func (l *Ledger) BalanceOf(currency string, address string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currencyLocked(currency)[address]
}

func (l *Ledger) currencyLocked(currency string) map[string]uint64 {
	accounts, found := l.balances[currency]
	if !found {
		accounts = make(map[string]uint64)
		l.balances[currency] = accounts
	}
	return accounts
}
