// Package payment talks to the Paystack-compatible payment gateway.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	httpclient "github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/http"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SignatureHeader = "x-paystack-signature"
	EventChargeOK   = "charge.success"
	StatusSuccess   = "success"
)

// InitializeRequest describes a checkout for the down payment.
type InitializeRequest struct {
	Email     string
	Amount    decimal.Decimal
	Currency  string
	Reference string
	Metadata  map[string]interface{}
}

// Checkout is what the storefront redirects the applicant to.
type Checkout struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is a verified gateway transaction, amounts in major units.
type Transaction struct {
	Status    string
	Reference string
	Amount    decimal.Decimal
	Currency  string
	PaidAt    string
}

type initializeBody struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type transactionData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaidAt    string `json:"paid_at"`
}

// Gateway is the payment gateway client.
type Gateway struct {
	client      *httpclient.Client
	baseURL     string
	secretKey   string
	callbackURL string
	prefix      string
	places      int32
	logger      logger.Logger
}

func NewGateway(cfg config.PaymentConfig, minorUnitPlaces int, log logger.Logger) *Gateway {
	return &Gateway{
		client:      httpclient.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		prefix:      cfg.ReferencePrefix,
		places:      int32(minorUnitPlaces),
		logger:      log.WithFields(map[string]interface{}{"component": "payment-gateway"}),
	}
}

// NewReference returns a unique transaction reference such as RZ-PSS-<uuid>.
func (g *Gateway) NewReference() string {
	return g.prefix + "-" + uuid.NewString()
}

// Initialize opens a checkout session for req.
func (g *Gateway) Initialize(ctx context.Context, req InitializeRequest) (*Checkout, error) {
	body := initializeBody{
		Email:       req.Email,
		Amount:      ToMinorUnits(req.Amount, g.places),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: g.callbackURL,
		Metadata:    req.Metadata,
	}

	var resp envelope[Checkout]
	if err := g.client.DoJSON(ctx, http.MethodPost, g.baseURL+"/transaction/initialize", g.headers(), body, &resp); err != nil {
		return nil, g.classify("initialize", err)
	}
	if !resp.Status {
		return nil, gatewayRejected(resp.Message)
	}
	if resp.Data.Reference == "" {
		resp.Data.Reference = req.Reference
	}

	g.logger.Info("payment initialized", map[string]interface{}{
		"reference": resp.Data.Reference,
		"amount":    req.Amount.String(),
	})
	return &resp.Data, nil
}

// Verify fetches the transaction state for reference.
func (g *Gateway) Verify(ctx context.Context, reference string) (*Transaction, error) {
	var resp envelope[transactionData]
	endpoint := g.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	if err := g.client.DoJSON(ctx, http.MethodGet, endpoint, g.headers(), nil, &resp); err != nil {
		var statusErr *httpclient.StatusError
		if stderrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, errors.NewPaymentNotSuccessfulError(reference, "transaction not found")
		}
		return nil, g.classify("verify", err)
	}
	if !resp.Status {
		return nil, gatewayRejected(resp.Message)
	}

	return &Transaction{
		Status:    resp.Data.Status,
		Reference: resp.Data.Reference,
		Amount:    FromMinorUnits(resp.Data.Amount, g.places),
		Currency:  resp.Data.Currency,
		PaidAt:    resp.Data.PaidAt,
	}, nil
}

func (g *Gateway) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + g.secretKey}
}

func (g *Gateway) classify(op string, err error) error {
	g.logger.Error("payment gateway call failed", map[string]interface{}{
		"operation": op,
		"error":     err,
	})
	stdErr := errors.NewPaymentGatewayError(fmt.Errorf("%s: %w", op, err))
	var statusErr *httpclient.StatusError
	if stderrors.As(err, &statusErr) && !statusErr.Transient() {
		stdErr.Retryable = false
	}
	return stdErr
}

func gatewayRejected(message string) error {
	stdErr := errors.NewPaymentGatewayError(fmt.Errorf("gateway rejected request: %s", message))
	stdErr.Retryable = false
	return stdErr
}

// VerifySignature checks the HMAC-SHA512 webhook signature of body.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	want, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// Sign computes the webhook signature for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ToMinorUnits converts 1500.50 to 150050 for two places.
func ToMinorUnits(amount decimal.Decimal, places int32) int64 {
	return amount.Shift(places).Round(0).IntPart()
}

func FromMinorUnits(amount int64, places int32) decimal.Decimal {
	return decimal.New(amount, -places)
}
