package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/camunda"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/payment"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const maxWebhookBody = 1 << 20

// MessagePublisher correlates a message with a waiting process instance.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg camunda.Message) error
}

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

type WebhookConfig struct {
	Secret      string
	MessageName string
	MessageTTL  time.Duration
}

type Handler struct {
	publisher MessagePublisher
	checks    map[string]Check
	webhook   WebhookConfig
	logger    logger.Logger
	now       func() time.Time
}

func NewHandler(publisher MessagePublisher, checks map[string]Check, webhook WebhookConfig, log logger.Logger) *Handler {
	return &Handler{
		publisher: publisher,
		checks:    checks,
		webhook:   webhook,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
		now:       time.Now,
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

// Ready runs every dependency check with a shared deadline.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ready", http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status, code = "not ready", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	sendJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": results,
		"time":   h.now().Format(time.RFC3339),
	})
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

// PaymentWebhook verifies the gateway signature and correlates successful
// charges with the process waiting on the payment reference.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		sendError(w, http.StatusBadRequest, "read request body")
		return
	}

	if !payment.VerifySignature(h.webhook.Secret, body, r.Header.Get(payment.SignatureHeader)) {
		h.logger.Warn("webhook signature rejected", map[string]interface{}{
			"requestId": chimw.GetReqID(r.Context()),
		})
		sendError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		sendError(w, http.StatusBadRequest, "malformed event")
		return
	}

	if ev.Event != payment.EventChargeOK {
		h.logger.Debug("webhook event ignored", map[string]interface{}{"event": ev.Event})
		sendJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if ev.Data.Reference == "" {
		sendError(w, http.StatusBadRequest, "missing reference")
		return
	}

	err = h.publisher.PublishMessage(r.Context(), camunda.Message{
		Name:           h.webhook.MessageName,
		CorrelationKey: ev.Data.Reference,
		ID:             ev.Data.Reference,
		TTL:            h.webhook.MessageTTL,
		Variables: map[string]interface{}{
			"paymentReference": ev.Data.Reference,
			"gatewayStatus":    ev.Data.Status,
		},
	})
	if err != nil {
		h.logger.Error("failed to publish payment message", map[string]interface{}{
			"reference": ev.Data.Reference,
			"error":     err.Error(),
		})
		code := http.StatusBadGateway
		if stdErr, ok := errors.AsStandardError(err); ok && !stdErr.Retryable {
			code = http.StatusUnprocessableEntity
		}
		sendError(w, code, "payment message not published")
		return
	}

	h.logger.Info("payment message published", map[string]interface{}{
		"reference": ev.Data.Reference,
	})
	sendJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
