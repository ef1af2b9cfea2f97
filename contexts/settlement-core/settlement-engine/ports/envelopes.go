package ports

import (
	"encoding/json"
	"strconv"

	contractsv1 "tessera/contracts/gen/events/v1"
)

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// BuildAssetPurchasedEnvelope maps one purchased item onto the canonical
// envelope.
func BuildAssetPurchasedEnvelope(event AssetPurchasedEvent) (EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"asset_id": event.AssetID,
		"buyer":    event.Buyer,
		"seller":   event.Seller,
		"price":    event.Price,
	})
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:          event.EventID,
		EventType:        "asset.purchased",
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "settlement-engine",
		SchemaVersion:    1,
		PartitionKeyPath: "asset_id",
		PartitionKey:     strconv.FormatUint(event.AssetID, 10),
		Data:             data,
	}, nil
}

// PurchaseEnvelopes flattens a PurchaseEventSet into envelopes in commit
// order: purchased items first, commission last.
func PurchaseEnvelopes(events PurchaseEventSet) ([]EventEnvelope, error) {
	envelopes := make([]EventEnvelope, 0, len(events.Purchases)+1)
	for _, purchased := range events.Purchases {
		envelope, err := BuildAssetPurchasedEnvelope(purchased)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, envelope)
	}
	if events.Commission.EventID != "" {
		envelope, err := BuildCommissionChargedEnvelope(events.Commission)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}

// BuildCommissionChargedEnvelope maps the commission leg onto the canonical
// envelope.
func BuildCommissionChargedEnvelope(event CommissionChargedEvent) (EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"settlement_id": event.SettlementID,
		"buyer":         event.Buyer,
		"treasury":      event.Treasury,
		"currency":      event.Currency,
		"amount":        event.Amount,
		"rate_bps":      event.RateBps,
	})
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:          event.EventID,
		EventType:        "commission.charged",
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "settlement-engine",
		SchemaVersion:    1,
		PartitionKeyPath: "settlement_id",
		PartitionKey:     event.SettlementID,
		Data:             data,
	}, nil
}
