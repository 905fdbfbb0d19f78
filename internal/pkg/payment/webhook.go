package payment

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ParseWebhookEvent decodes the gateway's webhook envelope into a transient
// ChargeEvent. Metadata is kept raw: normalization happens later against
// all historical payload shapes.
func ParseWebhookEvent(payload []byte) (*ChargeEvent, error) {
	var raw struct {
		Event string `json:"event"`
		Data  struct {
			Reference string          `json:"reference"`
			Amount    int64           `json:"amount"`
			PaidAt    string          `json:"paid_at"`
			Customer  GatewayCustomer `json:"customer"`
			Metadata  json.RawMessage `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	reference := strings.TrimSpace(raw.Data.Reference)
	if reference == "" {
		return nil, errors.New("webhook payload missing transaction reference")
	}

	ev := &ChargeEvent{
		Event:     strings.TrimSpace(raw.Event),
		Reference: reference,
		Amount:    raw.Data.Amount,
		Customer:  raw.Data.Customer,
		Metadata:  unwrapMetadata(raw.Data.Metadata),
	}
	if t, err := time.Parse(time.RFC3339, raw.Data.PaidAt); err == nil {
		ev.PaidAt = &t
	}
	return ev, nil
}

// unwrapMetadata tolerates metadata delivered as a JSON-encoded string
// instead of an object, a shape some gateway SDK versions produce.
func unwrapMetadata(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, `"`) {
		return raw
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return raw
	}
	return json.RawMessage(inner)
}
