// internal/workers/installment/approve-installment-application/handler_test.go
package approveinstallmentapplication

import (
	"context"
	"testing"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/lifecycle"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockDecider struct {
	ApproveFunc func(ctx context.Context, req lifecycle.DecisionRequest) (*models.Application, error)
	requests    []lifecycle.DecisionRequest
}

func (m *MockDecider) Approve(ctx context.Context, req lifecycle.DecisionRequest) (*models.Application, error) {
	m.requests = append(m.requests, req)
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, req)
	}
	at := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	return &models.Application{
		ID:         req.ApplicationID,
		Status:     installment.StatusApproved,
		AdminNotes: req.Notes,
		ApprovedBy: req.AdminID,
		ApprovedAt: &at,
	}, nil
}

func newTestHandler(t *testing.T, d *MockDecider) *Handler {
	return NewHandler(ConfigFrom(config.WorkerConfig{}), d, logger.NewTestLogger(t))
}

func TestHandler_Execute_Approves(t *testing.T) {
	d := &MockDecider{}
	h := newTestHandler(t, d)

	output, err := h.Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		AdminID:       "admin-7",
		Notes:         "checked payslips",
	})
	require.NoError(t, err)

	assert.Equal(t, "app-1", output.ApplicationID)
	assert.Equal(t, installment.StatusApproved, output.ApplicationStatus)
	assert.Equal(t, "admin-7", output.DecidedBy)
	require.NotNil(t, output.DecidedAt)
	assert.Equal(t, 2026, output.DecidedAt.Year())

	require.Len(t, d.requests, 1)
	assert.Equal(t, "checked payslips", d.requests[0].Notes)
}

func TestHandler_Execute_PropagatesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{"not pending", errors.NewConflictError("application is not pending", "status: approved"), errors.ErrCodeApplicationConflict},
		{"not an approver", errors.NewApproverNotAuthorizedError("staff-12"), errors.ErrCodeApproverNotAuthorized},
		{"unknown application", errors.NewNotFoundError("id: ghost"), errors.ErrCodeApplicationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &MockDecider{
				ApproveFunc: func(context.Context, lifecycle.DecisionRequest) (*models.Application, error) {
					return nil, tt.err
				},
			})

			_, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1", AdminID: "admin-7"})
			assert.True(t, errors.HasCode(err, tt.code))
		})
	}
}
