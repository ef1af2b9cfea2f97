package entities

import (
	"strings"
	"time"
)

// BasisPointsDenominator is the commission-rate scale: rate 500 = 5%.
// 10000 would mean a 100% commission and is rejected.
const BasisPointsDenominator = 10_000

// Policy is the admin-controlled settlement configuration: commission rate,
// privileged owner, pause flag, and the supported-currency set. Mutated only
// by the privileged owner; never reset.
type Policy struct {
	OwnerAddress        string
	TreasuryAddress     string
	CommissionRateBps   uint64
	Paused              bool
	SupportedCurrencies map[string]bool
	UpdatedAt           time.Time
}

func (p Policy) IsOwner(caller string) bool {
	caller = strings.TrimSpace(caller)
	return caller != "" && caller == p.OwnerAddress
}

func (p Policy) CurrencySupported(currency string) bool {
	return p.SupportedCurrencies[strings.TrimSpace(currency)]
}

// ValidCommissionRate reports whether a rate is below 100%.
func ValidCommissionRate(rateBps uint64) bool {
	return rateBps < BasisPointsDenominator
}

// DefaultPolicy seeds policy state at deployment. Treasury falls back to
// the owner address, matching the commission destination contract.
func DefaultPolicy(owner string, treasury string, rateBps uint64, now time.Time) Policy {
	owner = strings.TrimSpace(owner)
	treasury = strings.TrimSpace(treasury)
	if treasury == "" {
		treasury = owner
	}
	if !ValidCommissionRate(rateBps) {
		rateBps = 0
	}
	return Policy{
		OwnerAddress:        owner,
		TreasuryAddress:     treasury,
		CommissionRateBps:   rateBps,
		Paused:              false,
		SupportedCurrencies: make(map[string]bool),
		UpdatedAt:           now.UTC(),
	}
}
