// internal/workers/installment/compute-installment-plan/models.go
package computeinstallmentplan

import (
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"

	"github.com/shopspring/decimal"
)

type Input struct {
	TotalAmount decimal.Decimal `json:"totalAmount"`
	// ScheduleStart is the due date of the down payment (YYYY-MM-DD or RFC 3339).
	ScheduleStart string `json:"scheduleStart,omitempty"`
}

type Output struct {
	installment.Plan
	Schedule []installment.Installment `json:"schedule"`
}
