// Package search indexes application lifecycle events in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
)

// Event is one lifecycle transition document.
type Event struct {
	ApplicationID    string    `json:"applicationId"`
	Event            string    `json:"event"`
	FromStatus       string    `json:"fromStatus,omitempty"`
	ToStatus         string    `json:"toStatus"`
	Actor            string    `json:"actor,omitempty"`
	TotalAmount      string    `json:"totalAmount,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	Months           int       `json:"months,omitempty"`
	PaymentReference string    `json:"paymentReference,omitempty"`
	OccurredAt       time.Time `json:"occurredAt"`
}

type EventIndexer struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewEventIndexer returns an indexer. A nil client turns Record into a no-op.
func NewEventIndexer(es *elasticsearch.Client, index string, log logger.Logger) *EventIndexer {
	return &EventIndexer{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "event-indexer", "index": index}),
	}
}

// Record indexes ev. Indexing errors are logged and dropped.
func (i *EventIndexer) Record(ctx context.Context, ev Event) {
	if i == nil || i.es == nil {
		return
	}
	if err := i.put(ctx, ev); err != nil {
		i.logger.Warn("failed to index lifecycle event", map[string]interface{}{
			"applicationId": ev.ApplicationID,
			"event":         ev.Event,
			"error":         err,
		})
	}
}

func (i *EventIndexer) put(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	res, err := i.es.Index(i.index, bytes.NewReader(body), i.es.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("index error %s: %s", res.Status(), raw)
	}
	return nil
}
