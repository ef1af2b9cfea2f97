package entities

import "time"

// PurchaseItem is one caller-supplied purchase intent. Price and seller are
// declared by the caller; the commit-time owner re-check is the integrity
// guard, not a re-read of stored values.
type PurchaseItem struct {
	AssetID      uint64
	Price        uint64
	Seller       string
	MetadataHash string
}

// SettlementReceipt is the persisted outcome of one successful batch
// settlement.
type SettlementReceipt struct {
	SettlementID string
	Buyer        string
	Currency     string
	TotalPrice   uint64
	Commission   uint64
	RateBps      uint64
	Items        []ReceiptItem
	SettledAt    time.Time
}

type ReceiptItem struct {
	AssetID uint64
	Price   uint64
	Seller  string
}
