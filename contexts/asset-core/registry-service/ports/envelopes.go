package ports

import (
	"encoding/json"
	"strconv"
)

// BuildRegisteredEnvelope maps a registration event onto the canonical
// envelope. Shared by every store driver so the wire shape cannot drift.
func BuildRegisteredEnvelope(event RegisteredEvent) (EventEnvelope, error) {
	data, err := json.Marshal(map[string]any{
		"asset_id": event.AssetID,
		"seller":   event.Seller,
		"price":    event.Price,
	})
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:          event.EventID,
		EventType:        "asset.registered",
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "registry-service",
		SchemaVersion:    1,
		PartitionKeyPath: "asset_id",
		PartitionKey:     strconv.FormatUint(event.AssetID, 10),
		Data:             data,
	}, nil
}
