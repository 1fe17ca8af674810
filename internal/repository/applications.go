// internal/repository/applications.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"
)

const applicationColumns = `id, full_name, email, phone, address, employment_status, monthly_income,
	organization, id_number, verification, total_amount, first_payment, monthly_payment,
	final_payment, months, currency, cart_items, status, admin_notes, approved_by, approved_at,
	rejected_by, rejected_at, payment_reference, payment_completed_at, created_at, updated_at`

const (
	approveQuery = `
		UPDATE installment_applications
		SET status = 'approved', approved_by = $2, approved_at = $3, admin_notes = $4, updated_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + applicationColumns

	rejectQuery = `
		UPDATE installment_applications
		SET status = 'rejected', rejected_by = $2, rejected_at = $3, admin_notes = $4, updated_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + applicationColumns

	completePaymentQuery = `
		UPDATE installment_applications
		SET status = 'payment_completed', payment_completed_at = $2, updated_at = $2
		WHERE payment_reference = $1 AND status = 'approved'
		RETURNING ` + applicationColumns
)

// ApplicationRepository persists installment applications. Every state
// change is a conditional update on the required source status.
type ApplicationRepository struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewApplicationRepository(db *sql.DB, log logger.Logger) *ApplicationRepository {
	return &ApplicationRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "application-repository"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new pending application.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	verificationJSON, err := json.Marshal(app.Verification)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	cartJSON, err := json.Marshal(app.CartItems)
	if err != nil {
		return fmt.Errorf("marshal cart items: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO installment_applications (
			id, full_name, email, phone, address, employment_status, monthly_income,
			organization, id_number, verification, total_amount, first_payment,
			monthly_payment, final_payment, months, currency, cart_items, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		ON CONFLICT (id) DO NOTHING`,
		app.ID,
		app.FullName,
		app.Email,
		app.Phone,
		app.Address,
		app.EmploymentStatus,
		app.MonthlyIncome,
		nullString(app.Organization),
		app.IDNumber,
		verificationJSON,
		app.TotalAmount,
		app.FirstPayment,
		app.MonthlyPayment,
		app.FinalPayment,
		app.Months,
		app.Currency,
		cartJSON,
		string(app.Status),
		app.CreatedAt,
	)
	if err != nil {
		return errors.NewDatabaseOperationFailedError("insert application", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewConflictError("application already exists", app.ID)
	}
	return nil
}

// Get loads an application by id.
func (r *ApplicationRepository) Get(ctx context.Context, id string) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM installment_applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("application %s does not exist", id))
	}
	if err != nil {
		return nil, errors.NewDatabaseOperationFailedError("get application", err)
	}
	return app, nil
}

// GetByPaymentReference loads the application a payment reference belongs to.
func (r *ApplicationRepository) GetByPaymentReference(ctx context.Context, reference string) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM installment_applications WHERE payment_reference = $1`, reference)
	app, err := scanApplication(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no application holds payment reference %s", reference))
	}
	if err != nil {
		return nil, errors.NewDatabaseOperationFailedError("get application by reference", err)
	}
	return app, nil
}

// Decide moves a pending application to approved or rejected. A lost race or
// a non-pending row yields a conflict and leaves the row untouched.
func (r *ApplicationRepository) Decide(ctx context.Context, id string, to installment.Status, adminID, notes string) (*models.Application, error) {
	var query string
	switch to {
	case installment.StatusApproved:
		query = approveQuery
	case installment.StatusRejected:
		query = rejectQuery
	default:
		return nil, fmt.Errorf("decide: unsupported target status %q", to)
	}

	row := r.db.QueryRowContext(ctx, query, id, adminID, r.now(), nullString(notes))
	app, err := scanApplication(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, r.explainMiss(ctx, "id", id, "application is not pending")
	}
	if err != nil {
		return nil, errors.NewDatabaseOperationFailedError("decide application", err)
	}
	return app, nil
}

// AttachPaymentReference stores a fresh reference on an approved application,
// replacing any previous one.
func (r *ApplicationRepository) AttachPaymentReference(ctx context.Context, id, reference string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE installment_applications
		SET payment_reference = $2, updated_at = $3
		WHERE id = $1 AND status = 'approved'`,
		id, reference, r.now())
	if err != nil {
		return errors.NewDatabaseOperationFailedError("attach payment reference", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseOperationFailedError("attach payment reference", err)
	}
	if affected == 0 {
		return r.explainMiss(ctx, "id", id, "application is not approved")
	}
	return nil
}

// CompletePayment marks the approved application holding reference as paid.
func (r *ApplicationRepository) CompletePayment(ctx context.Context, reference string) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx, completePaymentQuery, reference, r.now())
	app, err := scanApplication(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, r.explainMiss(ctx, "payment_reference", reference, "application is not approved")
	}
	if err != nil {
		return nil, errors.NewDatabaseOperationFailedError("complete payment", err)
	}
	return app, nil
}

// explainMiss turns a zero-row conditional update into NotFound or Conflict.
func (r *ApplicationRepository) explainMiss(ctx context.Context, column, value, conflictMessage string) error {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM installment_applications WHERE `+column+` = $1`, value).Scan(&status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError(fmt.Sprintf("no application with %s %s", column, value))
	}
	if err != nil {
		return errors.NewDatabaseOperationFailedError("read application status", err)
	}
	return errors.NewConflictError(conflictMessage, fmt.Sprintf("application status is %q", status)).
		WithMetadata("currentStatus", status)
}

// RecordAudit appends to audit_log. Failures are logged, never returned.
func (r *ApplicationRepository) RecordAudit(ctx context.Context, eventType, applicationID string, details map[string]interface{}) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		r.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		detailsJSON = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		eventType,
		"installment_application",
		applicationID,
		detailsJSON,
		r.now(),
	)
	if err != nil {
		r.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err,
			"applicationId": applicationID,
			"eventType":     eventType,
		})
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app                                   models.Application
		status                                string
		verificationJSON, cartJSON            []byte
		organization, notes                   sql.NullString
		approvedBy, rejectedBy, reference     sql.NullString
		approvedAt, rejectedAt, paymentDoneAt sql.NullTime
	)

	err := row.Scan(
		&app.ID, &app.FullName, &app.Email, &app.Phone, &app.Address, &app.EmploymentStatus, &app.MonthlyIncome,
		&organization, &app.IDNumber, &verificationJSON, &app.TotalAmount, &app.FirstPayment, &app.MonthlyPayment,
		&app.FinalPayment, &app.Months, &app.Currency, &cartJSON, &status, &notes, &approvedBy, &approvedAt,
		&rejectedBy, &rejectedAt, &reference, &paymentDoneAt, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(verificationJSON, &app.Verification); err != nil {
		return nil, fmt.Errorf("decode verification: %w", err)
	}
	if err := json.Unmarshal(cartJSON, &app.CartItems); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}

	app.Status = installment.Status(status)
	app.Organization = organization.String
	app.AdminNotes = notes.String
	app.ApprovedBy = approvedBy.String
	app.RejectedBy = rejectedBy.String
	app.PaymentReference = reference.String
	app.ApprovedAt = timePtr(approvedAt)
	app.RejectedAt = timePtr(rejectedAt)
	app.PaymentCompletedAt = timePtr(paymentDoneAt)
	return &app, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
