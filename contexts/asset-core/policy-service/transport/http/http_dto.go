package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SetCommissionRateRequest struct {
	RateBps uint64 `json:"rate_bps"`
}

type CurrencyRequest struct {
	Currency string `json:"currency"`
}

type AckResponse struct {
	Status string `json:"status"`
}

type PolicyDTO struct {
	OwnerAddress        string   `json:"owner_address"`
	TreasuryAddress     string   `json:"treasury_address"`
	CommissionRateBps   uint64   `json:"commission_rate_bps"`
	Paused              bool     `json:"paused"`
	SupportedCurrencies []string `json:"supported_currencies"`
	UpdatedAt           string   `json:"updated_at"`
}

type GetPolicyResponse struct {
	Status string    `json:"status"`
	Data   PolicyDTO `json:"data"`
}

type CommissionRateResponse struct {
	Status string `json:"status"`
	Data   struct {
		RateBps uint64 `json:"rate_bps"`
	} `json:"data"`
}

type CurrencySupportResponse struct {
	Status string `json:"status"`
	Data   struct {
		Currency  string `json:"currency"`
		Supported bool   `json:"supported"`
	} `json:"data"`
}
