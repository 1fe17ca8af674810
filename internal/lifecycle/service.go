// Package lifecycle drives installment applications through their states.
package lifecycle

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/metrics"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/observability"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/payment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/search"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store is the persistence the lifecycle needs.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, id string) (*models.Application, error)
	GetByPaymentReference(ctx context.Context, reference string) (*models.Application, error)
	Decide(ctx context.Context, id string, to installment.Status, adminID, notes string) (*models.Application, error)
	AttachPaymentReference(ctx context.Context, id, reference string) error
	CompletePayment(ctx context.Context, reference string) (*models.Application, error)
	RecordAudit(ctx context.Context, eventType, applicationID string, details map[string]interface{})
}

type Notifier interface {
	ApplicationSubmitted(ctx context.Context, app *models.Application) []models.Notification
	ApplicationApproved(ctx context.Context, app *models.Application) []models.Notification
	ApplicationRejected(ctx context.Context, app *models.Application) []models.Notification
	PaymentCompleted(ctx context.Context, app *models.Application) []models.Notification
}

type Gateway interface {
	NewReference() string
	Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.Checkout, error)
}

type Approvers interface {
	IsApprover(ctx context.Context, userID string) (bool, error)
}

type Indexer interface {
	Record(ctx context.Context, ev search.Event)
}

type RateLimiter interface {
	Allow(ctx context.Context, email string) error
}

// ServiceDependencies wires the collaborators. Indexer and Limiter are optional.
type ServiceDependencies struct {
	Store     Store
	Notifier  Notifier
	Gateway   Gateway
	Approvers Approvers
	Indexer   Indexer
	Limiter   RateLimiter
	Policy    installment.Policy
	Logger    logger.Logger
}

type Service struct {
	store     Store
	notifier  Notifier
	gateway   Gateway
	approvers Approvers
	indexer   Indexer
	limiter   RateLimiter
	policy    installment.Policy
	logger    logger.Logger
	now       func() time.Time
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{
		store:     deps.Store,
		notifier:  deps.Notifier,
		gateway:   deps.Gateway,
		approvers: deps.Approvers,
		indexer:   deps.Indexer,
		limiter:   deps.Limiter,
		policy:    deps.Policy,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "lifecycle"}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SubmitRequest is a new installment application. FirstPayment and
// MonthlyPayment are the plan the applicant was shown; zero values skip
// the comparison. A non-zero ProcessInstanceKey makes the submission
// idempotent per process instance.
type SubmitRequest struct {
	ProcessInstanceKey int64

	Applicant      models.Applicant
	IDNumber       string
	Verification   *models.VerifiedIdentity
	TotalAmount    decimal.Decimal
	FirstPayment   decimal.Decimal
	MonthlyPayment decimal.Decimal
	Months         int
	CartItems      []models.CartItem
}

// DecisionRequest is an admin approve or reject.
type DecisionRequest struct {
	ApplicationID string
	AdminID       string
	Notes         string
}

var idNumberPattern = regexp.MustCompile(`^[0-9]{11}$`)

var applicationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://renewablezmart.com/installment-applications"))

// ApplicationID derives the application id owned by a process instance.
func ApplicationID(processInstanceKey int64) string {
	return uuid.NewSHA1(applicationNamespace, []byte(strconv.FormatInt(processInstanceKey, 10))).String()
}

// Submit validates and persists a new pending application.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (app *models.Application, err error) {
	ctx, span := observability.StartSpan(ctx, "lifecycle.submit",
		attribute.String("currency", s.policy.Currency))
	defer func() { s.finish(span, installment.EventSubmit, err) }()

	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if req.ProcessInstanceKey != 0 {
		id = ApplicationID(req.ProcessInstanceKey)
		existing, err := s.store.Get(ctx, id)
		if err == nil {
			s.logger.Info("installment application already submitted", map[string]interface{}{
				"applicationId":      id,
				"processInstanceKey": req.ProcessInstanceKey,
			})
			return existing, nil
		}
		if !errors.HasCode(err, errors.ErrCodeApplicationNotFound) {
			return nil, err
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, req.Applicant.Email); err != nil {
			return nil, err
		}
	}

	if req.Verification == nil {
		return nil, errors.NewUnverifiedIdentityError("identity verification has not succeeded")
	}
	if !req.Verification.BoundTo(req.IDNumber) {
		return nil, errors.NewUnverifiedIdentityError("identity verification belongs to a different identity number")
	}
	if err := installment.CrossCheckName(req.Applicant.FullName, req.Verification.Name()); err != nil {
		return nil, err
	}

	plan, err := s.planFor(req)
	if err != nil {
		return nil, err
	}

	status, err := installment.Transition(installment.StatusNone, installment.EventSubmit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	app = &models.Application{
		ID:             id,
		Applicant:      req.Applicant,
		IDNumber:       req.IDNumber,
		Verification:   *req.Verification,
		TotalAmount:    plan.TotalAmount,
		FirstPayment:   plan.FirstPayment,
		MonthlyPayment: plan.MonthlyPayment,
		FinalPayment:   plan.FinalPayment,
		Months:         plan.Months,
		Currency:       plan.Currency,
		CartItems:      req.CartItems,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, app); err != nil {
		if req.ProcessInstanceKey != 0 && errors.HasCode(err, errors.ErrCodeApplicationConflict) {
			// a concurrent delivery of the same job inserted it first
			return s.store.Get(ctx, id)
		}
		return nil, err
	}

	s.store.RecordAudit(ctx, "installment_application_submitted", app.ID, map[string]interface{}{
		"totalAmount": app.TotalAmount.String(),
		"months":      app.Months,
		"currency":    app.Currency,
	})
	s.notifier.ApplicationSubmitted(ctx, app)
	s.index(ctx, installment.EventSubmit, installment.StatusNone, app, "")

	s.logger.Info("installment application submitted", map[string]interface{}{
		"applicationId": app.ID,
		"months":        app.Months,
		"totalAmount":   app.TotalAmount.String(),
	})
	return app, nil
}

// Approve moves a pending application to approved.
func (s *Service) Approve(ctx context.Context, req DecisionRequest) (*models.Application, error) {
	return s.decide(ctx, installment.EventApprove, req)
}

// Reject moves a pending application to rejected.
func (s *Service) Reject(ctx context.Context, req DecisionRequest) (*models.Application, error) {
	return s.decide(ctx, installment.EventReject, req)
}

func (s *Service) decide(ctx context.Context, ev installment.Event, req DecisionRequest) (app *models.Application, err error) {
	ctx, span := observability.StartSpan(ctx, "lifecycle."+string(ev),
		attribute.String("applicationId", req.ApplicationID))
	defer func() { s.finish(span, ev, err) }()

	if strings.TrimSpace(req.ApplicationID) == "" || strings.TrimSpace(req.AdminID) == "" {
		return nil, errors.NewValidationFailedError("applicationId and adminId are required")
	}

	ok, err := s.approvers.IsApprover(ctx, req.AdminID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewApproverNotAuthorizedError(req.AdminID)
	}

	current, err := s.store.Get(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	to, err := installment.Transition(current.Status, ev)
	if err != nil {
		return nil, err
	}

	app, err = s.store.Decide(ctx, req.ApplicationID, to, req.AdminID, req.Notes)
	if err != nil {
		return nil, err
	}

	s.store.RecordAudit(ctx, "installment_application_"+string(to), app.ID, map[string]interface{}{
		"adminId": req.AdminID,
		"notes":   req.Notes,
	})
	if to == installment.StatusApproved {
		s.notifier.ApplicationApproved(ctx, app)
	} else {
		s.notifier.ApplicationRejected(ctx, app)
	}
	s.index(ctx, ev, current.Status, app, req.AdminID)

	s.logger.Info("installment application decided", map[string]interface{}{
		"applicationId": app.ID,
		"status":        string(app.Status),
		"adminId":       req.AdminID,
	})
	return app, nil
}

// InitializePayment attaches a fresh reference to an approved application
// and opens a gateway checkout for the first payment.
func (s *Service) InitializePayment(ctx context.Context, id string) (session *models.PaymentSession, err error) {
	ctx, span := observability.StartSpan(ctx, "lifecycle.initializePayment",
		attribute.String("applicationId", id))
	defer func() { s.finish(span, installment.EventInitializePayment, err) }()

	if strings.TrimSpace(id) == "" {
		return nil, errors.NewValidationFailedError("applicationId is required")
	}

	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := installment.Transition(app.Status, installment.EventInitializePayment); err != nil {
		return nil, err
	}

	reference := s.gateway.NewReference()
	if err := s.store.AttachPaymentReference(ctx, id, reference); err != nil {
		return nil, err
	}
	app.PaymentReference = reference

	checkout, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Email:     app.Email,
		Amount:    app.FirstPayment,
		Currency:  app.Currency,
		Reference: reference,
		Metadata: map[string]interface{}{
			"applicationId": app.ID,
			"months":        app.Months,
		},
	})
	if err != nil {
		return nil, err
	}

	s.store.RecordAudit(ctx, "installment_payment_initialized", app.ID, map[string]interface{}{
		"reference": reference,
		"amount":    app.FirstPayment.String(),
	})
	s.index(ctx, installment.EventInitializePayment, app.Status, app, "")

	return &models.PaymentSession{
		ApplicationID:    app.ID,
		Reference:        reference,
		AuthorizationURL: checkout.AuthorizationURL,
		AccessCode:       checkout.AccessCode,
		Amount:           app.FirstPayment,
		Currency:         app.Currency,
	}, nil
}

// ConfirmPayment completes the approved application holding reference.
func (s *Service) ConfirmPayment(ctx context.Context, reference string) (app *models.Application, err error) {
	ctx, span := observability.StartSpan(ctx, "lifecycle.paymentConfirmed",
		attribute.String("reference", reference))
	defer func() { s.finish(span, installment.EventPaymentConfirmed, err) }()

	if strings.TrimSpace(reference) == "" {
		return nil, errors.NewValidationFailedError("payment reference is required")
	}

	app, err = s.store.CompletePayment(ctx, reference)
	if err != nil {
		return nil, err
	}

	s.store.RecordAudit(ctx, "installment_payment_completed", app.ID, map[string]interface{}{
		"reference": reference,
	})
	s.notifier.PaymentCompleted(ctx, app)
	s.index(ctx, installment.EventPaymentConfirmed, installment.StatusApproved, app, "")
	return app, nil
}

// Get loads an application by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Application, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewValidationFailedError("applicationId is required")
	}
	return s.store.Get(ctx, id)
}

// GetByPaymentReference loads the application holding reference.
func (s *Service) GetByPaymentReference(ctx context.Context, reference string) (*models.Application, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, errors.NewValidationFailedError("payment reference is required")
	}
	return s.store.GetByPaymentReference(ctx, reference)
}

// planFor recomputes the plan from the total and checks any submitted
// figures and the cart against it.
func (s *Service) planFor(req SubmitRequest) (*installment.Plan, error) {
	if len(req.CartItems) > 0 {
		cartTotal := decimal.Zero
		for _, item := range req.CartItems {
			cartTotal = cartTotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if !cartTotal.Equal(req.TotalAmount) {
			return nil, errors.NewInvalidAmountError(
				fmt.Sprintf("cart items sum to %s but total is %s", cartTotal, req.TotalAmount))
		}
	}

	if !req.FirstPayment.IsZero() || !req.MonthlyPayment.IsZero() || req.Months != 0 {
		if err := installment.ValidatePlan(s.policy, req.TotalAmount, req.FirstPayment, req.MonthlyPayment, req.Months); err != nil {
			return nil, err
		}
	}

	plan, err := installment.Compute(req.TotalAmount, s.policy)
	if err != nil {
		return nil, err
	}
	metrics.PlansComputed.WithLabelValues(fmt.Sprint(plan.Months)).Inc()
	return plan, nil
}

func validateSubmit(req SubmitRequest) error {
	var missing []string
	if strings.TrimSpace(req.Applicant.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(req.Applicant.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(req.Applicant.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return errors.NewValidationFailedError("missing required fields: " + strings.Join(missing, ", "))
	}
	if !idNumberPattern.MatchString(req.IDNumber) {
		return errors.NewValidationFailedError("identity number must be exactly 11 digits")
	}
	for i, item := range req.CartItems {
		if item.ProductID == "" || item.Quantity < 1 || !item.Price.IsPositive() {
			return errors.NewValidationFailedError(fmt.Sprintf("cart item %d is invalid", i))
		}
	}
	return nil
}

func (s *Service) index(ctx context.Context, ev installment.Event, from installment.Status, app *models.Application, actor string) {
	if s.indexer == nil {
		return
	}
	s.indexer.Record(ctx, search.Event{
		ApplicationID:    app.ID,
		Event:            string(ev),
		FromStatus:       string(from),
		ToStatus:         string(app.Status),
		Actor:            actor,
		TotalAmount:      app.TotalAmount.String(),
		Currency:         app.Currency,
		Months:           app.Months,
		PaymentReference: app.PaymentReference,
		OccurredAt:       s.now(),
	})
}

func (s *Service) finish(span trace.Span, ev installment.Event, err error) {
	outcome := "success"
	if err != nil {
		outcome = errors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	metrics.LifecycleTransitions.WithLabelValues(string(ev), outcome).Inc()
	span.End()
}
