package httpadapter

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"tessera/contexts/asset-core/policy-service/application"
	"tessera/contexts/asset-core/policy-service/domain/entities"
	httptransport "tessera/contexts/asset-core/policy-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) SetCommissionRateHandler(
	ctx context.Context,
	caller string,
	req httptransport.SetCommissionRateRequest,
) (httptransport.AckResponse, error) {
	if err := h.Service.SetCommissionRate(ctx, caller, req.RateBps); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) AddCurrencyHandler(
	ctx context.Context,
	caller string,
	req httptransport.CurrencyRequest,
) (httptransport.AckResponse, error) {
	if err := h.Service.AddSupportedCurrency(ctx, caller, req.Currency); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) RemoveCurrencyHandler(
	ctx context.Context,
	caller string,
	currency string,
) (httptransport.AckResponse, error) {
	if err := h.Service.RemoveSupportedCurrency(ctx, caller, currency); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) PauseHandler(ctx context.Context, caller string) (httptransport.AckResponse, error) {
	if err := h.Service.Pause(ctx, caller); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) UnpauseHandler(ctx context.Context, caller string) (httptransport.AckResponse, error) {
	if err := h.Service.Unpause(ctx, caller); err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) GetPolicyHandler(ctx context.Context) (httptransport.GetPolicyResponse, error) {
	policy, err := h.Service.GetPolicy(ctx)
	if err != nil {
		return httptransport.GetPolicyResponse{}, err
	}
	return httptransport.GetPolicyResponse{
		Status: "success",
		Data:   toDTO(policy),
	}, nil
}

func (h Handler) GetCommissionRateHandler(ctx context.Context) (httptransport.CommissionRateResponse, error) {
	rate, err := h.Service.GetCommissionRate(ctx)
	if err != nil {
		return httptransport.CommissionRateResponse{}, err
	}
	resp := httptransport.CommissionRateResponse{Status: "success"}
	resp.Data.RateBps = rate
	return resp, nil
}

func (h Handler) IsCurrencySupportedHandler(ctx context.Context, currency string) (httptransport.CurrencySupportResponse, error) {
	supported, err := h.Service.IsCurrencySupported(ctx, currency)
	if err != nil {
		return httptransport.CurrencySupportResponse{}, err
	}
	resp := httptransport.CurrencySupportResponse{Status: "success"}
	resp.Data.Currency = currency
	resp.Data.Supported = supported
	return resp, nil
}

func toDTO(policy entities.Policy) httptransport.PolicyDTO {
	currencies := make([]string, 0, len(policy.SupportedCurrencies))
	for currency := range policy.SupportedCurrencies {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	return httptransport.PolicyDTO{
		OwnerAddress:        policy.OwnerAddress,
		TreasuryAddress:     policy.TreasuryAddress,
		CommissionRateBps:   policy.CommissionRateBps,
		Paused:              policy.Paused,
		SupportedCurrencies: currencies,
		UpdatedAt:           policy.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
