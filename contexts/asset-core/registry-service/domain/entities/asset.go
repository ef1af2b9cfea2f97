package entities

import (
	"strings"
	"time"
)

// Asset is a uniquely identified sellable digital-rights record. The
// registered flag is monotonic: once an asset identifier is taken it can
// never be registered again, and only the Owner field mutates afterwards.
type Asset struct {
	AssetID      uint64
	Seller       string
	Owner        string
	Price        uint64
	MetadataHash string
	Registered   bool
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// NewAsset builds a registered asset record owned by the registering seller.
func NewAsset(assetID uint64, seller string, price uint64, metadataHash string, now time.Time) (Asset, bool) {
	seller = strings.TrimSpace(seller)
	metadataHash = strings.TrimSpace(metadataHash)
	if seller == "" || metadataHash == "" {
		return Asset{}, false
	}
	return Asset{
		AssetID:      assetID,
		Seller:       seller,
		Owner:        seller,
		Price:        price,
		MetadataHash: metadataHash,
		Registered:   true,
		RegisteredAt: now.UTC(),
		UpdatedAt:    now.UTC(),
	}, true
}
