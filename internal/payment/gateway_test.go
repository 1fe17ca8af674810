package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, baseURL string) *Gateway {
	return NewGateway(config.PaymentConfig{
		BaseURL:         baseURL,
		SecretKey:       "sk_test_123",
		CallbackURL:     "https://shop.example/checkout/complete",
		ReferencePrefix: "RZ-PSS",
		Timeout:         2000,
	}, 2, logger.NewTestLogger(t))
}

func TestNewReference_IsUniqueAndPrefixed(t *testing.T) {
	g := newTestGateway(t, "http://unused")
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := g.NewReference()
		assert.True(t, strings.HasPrefix(ref, "RZ-PSS-"))
		assert.False(t, seen[ref])
		seen[ref] = true
	}
}

func TestInitialize_SendsMinorUnits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		var body initializeBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(14000000), body.Amount)
		assert.Equal(t, "NGN", body.Currency)
		assert.Equal(t, "RZ-PSS-1", body.Reference)
		assert.Equal(t, "app-1", body.Metadata["applicationId"])

		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created",
			"data":{"authorization_url":"https://checkout.example/abc","access_code":"abc","reference":"RZ-PSS-1"}}`))
	}))
	defer server.Close()

	checkout, err := newTestGateway(t, server.URL).Initialize(context.Background(), InitializeRequest{
		Email:     "ada@example.com",
		Amount:    decimal.RequireFromString("140000"),
		Currency:  "NGN",
		Reference: "RZ-PSS-1",
		Metadata:  map[string]interface{}{"applicationId": "app-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/abc", checkout.AuthorizationURL)
	assert.Equal(t, "abc", checkout.AccessCode)
}

func TestInitialize_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"gateway down", http.StatusBadGateway, `{}`, true},
		{"bad key", http.StatusUnauthorized, `{"status":false,"message":"Invalid key"}`, false},
		{"declined in body", http.StatusOK, `{"status":false,"message":"Duplicate Transaction Reference"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestGateway(t, server.URL).Initialize(context.Background(), InitializeRequest{
				Email: "ada@example.com", Amount: decimal.NewFromInt(1), Currency: "NGN", Reference: "r",
			})
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodePaymentGatewayError, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/transaction/verify/RZ-PSS-missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "/transaction/verify/RZ-PSS-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful",
			"data":{"status":"success","reference":"RZ-PSS-1","amount":14000050,"currency":"NGN","paid_at":"2026-03-02T10:00:00Z"}}`))
	}))
	defer server.Close()

	g := newTestGateway(t, server.URL)

	tx, err := g.Verify(context.Background(), "RZ-PSS-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, tx.Status)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("140000.50")))

	_, err = g.Verify(context.Background(), "RZ-PSS-missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodePaymentNotSuccessful))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"RZ-PSS-1"}}`)
	sig := Sign("sk_test_123", body)

	assert.True(t, VerifySignature("sk_test_123", body, sig))
	assert.True(t, VerifySignature("sk_test_123", body, strings.ToUpper(sig)))
	assert.False(t, VerifySignature("sk_other", body, sig))
	assert.False(t, VerifySignature("sk_test_123", append(body, ' '), sig))
	assert.False(t, VerifySignature("sk_test_123", body, "not-hex"))
	assert.False(t, VerifySignature("", body, sig))
	assert.False(t, VerifySignature("sk_test_123", body, ""))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2333335), ToMinorUnits(decimal.RequireFromString("23333.35"), 2))
	assert.Equal(t, int64(100), ToMinorUnits(decimal.RequireFromString("1"), 2))
	assert.True(t, FromMinorUnits(2333335, 2).Equal(decimal.RequireFromString("23333.35")))
}
