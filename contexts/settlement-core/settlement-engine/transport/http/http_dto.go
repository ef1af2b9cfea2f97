package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PurchaseItemDTO struct {
	AssetID      uint64 `json:"asset_id"`
	Price        uint64 `json:"price"`
	Seller       string `json:"seller"`
	MetadataHash string `json:"metadata_hash,omitempty"`
}

type PurchaseRequest struct {
	Currency string            `json:"currency"`
	Items    []PurchaseItemDTO `json:"items"`
}

type ReceiptItemDTO struct {
	AssetID uint64 `json:"asset_id"`
	Price   uint64 `json:"price"`
	Seller  string `json:"seller"`
}

type SettlementReceiptDTO struct {
	SettlementID string           `json:"settlement_id"`
	Buyer        string           `json:"buyer"`
	Currency     string           `json:"currency"`
	TotalPrice   uint64           `json:"total_price"`
	Commission   uint64           `json:"commission"`
	RateBps      uint64           `json:"rate_bps"`
	Items        []ReceiptItemDTO `json:"items"`
	SettledAt    string           `json:"settled_at"`
}

type PurchaseResponse struct {
	Status   string               `json:"status"`
	Replayed bool                 `json:"replayed,omitempty"`
	Data     SettlementReceiptDTO `json:"data"`
}

type GetSettlementResponse struct {
	Status string               `json:"status"`
	Data   SettlementReceiptDTO `json:"data"`
}

type ListSettlementsResponse struct {
	Status string                 `json:"status"`
	Data   []SettlementReceiptDTO `json:"data"`
}
