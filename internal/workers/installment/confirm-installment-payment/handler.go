// internal/workers/installment/confirm-installment-payment/handler.go
package confirminstallmentpayment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/metrics"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/payment"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "confirm-installment-payment"

// Payments is the lifecycle side of a payment confirmation.
type Payments interface {
	GetByPaymentReference(ctx context.Context, reference string) (*models.Application, error)
	ConfirmPayment(ctx context.Context, reference string) (*models.Application, error)
}

// TransactionVerifier asks the gateway for the real transaction state.
type TransactionVerifier interface {
	Verify(ctx context.Context, reference string) (*payment.Transaction, error)
}

type Handler struct {
	config       *Config
	payments     Payments
	gateway      TransactionVerifier
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, payments Payments, gateway TransactionVerifier, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		payments:     payments,
		gateway:      gateway,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInputParsingFailedError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	app, err := h.payments.GetByPaymentReference(ctx, input.PaymentReference)
	if err != nil {
		return nil, err
	}

	tx, err := h.gateway.Verify(ctx, input.PaymentReference)
	if err != nil {
		return nil, err
	}
	if err := checkTransaction(app, tx); err != nil {
		h.logger.Warn("payment not accepted", map[string]interface{}{
			"applicationId": app.ID,
			"reference":     input.PaymentReference,
			"gatewayStatus": tx.Status,
		})
		return nil, err
	}

	app, err = h.payments.ConfirmPayment(ctx, input.PaymentReference)
	if err != nil {
		return nil, err
	}

	h.logger.Info("installment payment confirmed", map[string]interface{}{
		"applicationId": app.ID,
		"reference":     input.PaymentReference,
		"amount":        tx.Amount.String(),
	})

	return &Output{
		ApplicationID:      app.ID,
		ApplicationStatus:  app.Status,
		PaymentReference:   input.PaymentReference,
		AmountPaid:         tx.Amount,
		PaidAt:             tx.PaidAt,
		PaymentCompletedAt: app.PaymentCompletedAt,
	}, nil
}

// checkTransaction accepts a successful charge of at least the first payment
// in the plan currency.
func checkTransaction(app *models.Application, tx *payment.Transaction) error {
	if tx.Status != payment.StatusSuccess {
		return errors.NewPaymentNotSuccessfulError(app.PaymentReference, "gateway status: "+tx.Status)
	}
	if tx.Amount.LessThan(app.FirstPayment) {
		return errors.NewPaymentNotSuccessfulError(app.PaymentReference,
			fmt.Sprintf("paid %s, expected %s", tx.Amount.String(), app.FirstPayment.String()))
	}
	if tx.Currency != "" && !strings.EqualFold(tx.Currency, app.Currency) {
		return errors.NewPaymentNotSuccessfulError(app.PaymentReference,
			fmt.Sprintf("paid in %s, expected %s", tx.Currency, app.Currency))
	}
	return nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
