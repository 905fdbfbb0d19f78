package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGateway(handler http.HandlerFunc) (*GatewayClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := &GatewayClient{
		SecretKey:  "sk_test_secret",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	}
	return client, server
}

func TestVerifyTransaction_Success(t *testing.T) {
	var gotPath, gotAuth string
	client, server := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": true,
			"data": {
				"status": "success",
				"reference": "TEST_1001",
				"amount": 17000,
				"paid_at": "2024-06-01T12:30:00Z",
				"customer": {"email": "ada@example.com", "first_name": "Ada", "last_name": "Obi"},
				"metadata": {"items": [{"product_id": 7, "pack": "5kg", "quantity": 2}]}
			}
		}`))
	})
	defer server.Close()

	ev, err := client.VerifyTransaction(context.Background(), "TEST_1001")
	assert.NoError(t, err)
	assert.Equal(t, "/transaction/verify/TEST_1001", gotPath)
	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
	assert.Equal(t, EventChargeSuccess, ev.Event)
	assert.Equal(t, "TEST_1001", ev.Reference)
	assert.Equal(t, int64(17000), ev.Amount)
	assert.Equal(t, "ada@example.com", ev.Customer.Email)
	if assert.NotNil(t, ev.PaidAt) {
		assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC), ev.PaidAt.UTC())
	}
}

// Metadata arriving as a JSON-encoded string is unwrapped the same way the
// webhook path unwraps it.
func TestVerifyTransaction_StringMetadata(t *testing.T) {
	client, server := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": true,
			"data": {
				"status": "success",
				"reference": "TEST_1002",
				"amount": 4800,
				"metadata": "{\"items\": [{\"product_id\": 9, \"quantity\": 1}]}"
			}
		}`))
	})
	defer server.Close()

	ev, err := client.VerifyTransaction(context.Background(), "TEST_1002")
	assert.NoError(t, err)

	input, err := NormalizeChargeMetadata(ev.Metadata, ev.Customer)
	assert.NoError(t, err)
	assert.Len(t, input.Items, 1)
	assert.Equal(t, "9", input.Items[0].ProductID)
}

func TestVerifyTransaction_NotSuccessful(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"failed charge", `{"status": true, "data": {"status": "failed", "reference": "TEST_1003"}}`},
		{"abandoned charge", `{"status": true, "data": {"status": "abandoned", "reference": "TEST_1003"}}`},
		{"envelope status false", `{"status": false, "message": "Transaction reference not found"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			defer server.Close()

			_, err := client.VerifyTransaction(context.Background(), "TEST_1003")
			assert.ErrorIs(t, err, ErrGatewayVerify)
		})
	}
}

func TestVerifyTransaction_HTTPError(t *testing.T) {
	client, server := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status": false}`, http.StatusUnauthorized)
	})
	defer server.Close()

	_, err := client.VerifyTransaction(context.Background(), "TEST_1004")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayVerify)
}

func TestVerifyTransaction_InputValidation(t *testing.T) {
	client := &GatewayClient{SecretKey: "sk_test_secret", BaseURL: "http://localhost:0", HTTPClient: http.DefaultClient}

	_, err := client.VerifyTransaction(context.Background(), "   ")
	assert.Error(t, err)

	client.SecretKey = ""
	_, err = client.VerifyTransaction(context.Background(), "TEST_1005")
	assert.Error(t, err)
}
