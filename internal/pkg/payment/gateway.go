package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/velora-shop/velora/internal/pkg/env"
)

const defaultGatewayBaseURL = "https://api.paystack.co"

// GatewayClient talks to the payment gateway's read API. It exists for the
// pull-based fallback: when the webhook is delayed or missed, the client
// asks the gateway for the transaction status by reference.
type GatewayClient struct {
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
}

func NewGatewayClientFromEnv() *GatewayClient {
	return &GatewayClient{
		SecretKey: strings.TrimSpace(env.GetEnv("GATEWAY_SECRET_KEY", "")),
		BaseURL:   strings.TrimRight(env.GetEnv("GATEWAY_API_BASE_URL", defaultGatewayBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// VerifyTransaction queries the verify-by-reference endpoint and returns a
// ChargeEvent when the gateway reports the transaction as successful.
// Unsuccessful or unknown transactions return ErrGatewayVerify.
func (c *GatewayClient) VerifyTransaction(ctx context.Context, reference string) (*ChargeEvent, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, errors.New("transaction reference is required")
	}
	if c.SecretKey == "" {
		return nil, errors.New("GATEWAY_SECRET_KEY is not configured")
	}

	url := fmt.Sprintf("%s/transaction/verify/%s", c.BaseURL, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway verify failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw struct {
		Status bool `json:"status"`
		Data   struct {
			Status    string          `json:"status"`
			Reference string          `json:"reference"`
			Amount    int64           `json:"amount"`
			PaidAt    string          `json:"paid_at"`
			Customer  GatewayCustomer `json:"customer"`
			Metadata  json.RawMessage `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if !raw.Status || !strings.EqualFold(raw.Data.Status, "success") {
		return nil, fmt.Errorf("%w: status=%q", ErrGatewayVerify, raw.Data.Status)
	}

	ev := &ChargeEvent{
		Event:     EventChargeSuccess,
		Reference: ref,
		Amount:    raw.Data.Amount,
		Customer:  raw.Data.Customer,
		Metadata:  unwrapMetadata(raw.Data.Metadata),
	}
	if t, err := time.Parse(time.RFC3339, raw.Data.PaidAt); err == nil {
		ev.PaidAt = &t
	}
	return ev, nil
}
