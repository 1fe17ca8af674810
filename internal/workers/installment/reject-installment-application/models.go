// internal/workers/installment/reject-installment-application/models.go
package rejectinstallmentapplication

import (
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"
)

// Input is filled in by the admin review user task.
type Input struct {
	ApplicationID string `json:"applicationId"`
	AdminID       string `json:"adminId"`
	Notes         string `json:"adminNotes"`
}

type Output struct {
	ApplicationID     string             `json:"applicationId"`
	ApplicationStatus installment.Status `json:"applicationStatus"`
	DecidedBy         string             `json:"decidedBy"`
	DecidedAt         *time.Time         `json:"decidedAt"`
}
