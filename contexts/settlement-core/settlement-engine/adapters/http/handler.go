package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tessera/contexts/settlement-core/settlement-engine/application/commands"
	"tessera/contexts/settlement-core/settlement-engine/application/queries"
	"tessera/contexts/settlement-core/settlement-engine/domain/entities"
	httptransport "tessera/contexts/settlement-core/settlement-engine/transport/http"
)

type Handler struct {
	PurchaseAssets  commands.PurchaseAssetsUseCase
	GetSettlement   queries.GetSettlementUseCase
	ListSettlements queries.ListSettlementsUseCase
	Logger          *slog.Logger
}

func (h Handler) PurchaseAssetsHandler(
	ctx context.Context,
	caller string,
	idempotencyKey string,
	req httptransport.PurchaseRequest,
) (httptransport.PurchaseResponse, error) {
	items := make([]entities.PurchaseItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, entities.PurchaseItem{
			AssetID:      item.AssetID,
			Price:        item.Price,
			Seller:       item.Seller,
			MetadataHash: item.MetadataHash,
		})
	}
	result, err := h.PurchaseAssets.Execute(ctx, commands.PurchaseAssetsCommand{
		Buyer:          caller,
		Currency:       req.Currency,
		IdempotencyKey: idempotencyKey,
		Items:          items,
	})
	if err != nil {
		return httptransport.PurchaseResponse{}, err
	}
	return httptransport.PurchaseResponse{
		Status:   "success",
		Replayed: result.Replayed,
		Data:     toDTO(result.Receipt),
	}, nil
}

func (h Handler) GetSettlementHandler(ctx context.Context, settlementID string) (httptransport.GetSettlementResponse, error) {
	receipt, err := h.GetSettlement.Execute(ctx, queries.GetSettlementQuery{SettlementID: settlementID})
	if err != nil {
		return httptransport.GetSettlementResponse{}, err
	}
	return httptransport.GetSettlementResponse{
		Status: "success",
		Data:   toDTO(receipt),
	}, nil
}

func (h Handler) ListSettlementsHandler(
	ctx context.Context,
	buyer string,
	limit int,
	offset int,
) (httptransport.ListSettlementsResponse, error) {
	result, err := h.ListSettlements.Execute(ctx, queries.ListSettlementsQuery{
		Buyer:  buyer,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return httptransport.ListSettlementsResponse{}, err
	}
	resp := httptransport.ListSettlementsResponse{
		Status: "success",
		Data:   make([]httptransport.SettlementReceiptDTO, 0, len(result.Settlements)),
	}
	for _, receipt := range result.Settlements {
		resp.Data = append(resp.Data, toDTO(receipt))
	}
	return resp, nil
}

func toDTO(receipt entities.SettlementReceipt) httptransport.SettlementReceiptDTO {
	items := make([]httptransport.ReceiptItemDTO, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, httptransport.ReceiptItemDTO{
			AssetID: item.AssetID,
			Price:   item.Price,
			Seller:  item.Seller,
		})
	}
	return httptransport.SettlementReceiptDTO{
		SettlementID: receipt.SettlementID,
		Buyer:        receipt.Buyer,
		Currency:     receipt.Currency,
		TotalPrice:   receipt.TotalPrice,
		Commission:   receipt.Commission,
		RateBps:      receipt.RateBps,
		Items:        items,
		SettledAt:    receipt.SettledAt.UTC().Format(time.RFC3339),
	}
}
