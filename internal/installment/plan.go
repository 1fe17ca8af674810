// Package installment holds the pure Pay Small Small rules: the split-payment
// calculator, the application state machine and the identity name check.
package installment

import (
	"fmt"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"

	"github.com/shopspring/decimal"
)

// Policy is the split-payment business policy.
type Policy struct {
	Currency          string
	FirstPaymentRatio decimal.Decimal
	ShortTermMin      decimal.Decimal
	ShortTermMax      decimal.Decimal
	ShortTermMonths   int
	LongTermMonths    int
	MinorUnitPlaces   int32
}

// DefaultPolicy returns the storefront's standard policy: half down, three
// months for carts between 450,000 and 1,000,000, six months otherwise.
func DefaultPolicy() Policy {
	return Policy{
		Currency:          "NGN",
		FirstPaymentRatio: decimal.RequireFromString("0.5"),
		ShortTermMin:      decimal.NewFromInt(450000),
		ShortTermMax:      decimal.NewFromInt(1000000),
		ShortTermMonths:   3,
		LongTermMonths:    6,
		MinorUnitPlaces:   2,
	}
}

// PolicyFromConfig parses and validates the installment config section.
func PolicyFromConfig(cfg config.InstallmentConfig) (Policy, error) {
	ratio, err := decimal.NewFromString(cfg.FirstPaymentRatio)
	if err != nil {
		return Policy{}, fmt.Errorf("installment.first_payment_ratio: %w", err)
	}
	minTotal, err := decimal.NewFromString(cfg.ShortTermMin)
	if err != nil {
		return Policy{}, fmt.Errorf("installment.short_term_min: %w", err)
	}
	maxTotal, err := decimal.NewFromString(cfg.ShortTermMax)
	if err != nil {
		return Policy{}, fmt.Errorf("installment.short_term_max: %w", err)
	}

	p := Policy{
		Currency:          cfg.Currency,
		FirstPaymentRatio: ratio,
		ShortTermMin:      minTotal,
		ShortTermMax:      maxTotal,
		ShortTermMonths:   cfg.ShortTermMonths,
		LongTermMonths:    cfg.LongTermMonths,
		MinorUnitPlaces:   int32(cfg.MinorUnitPlaces),
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy is internally consistent.
func (p Policy) Validate() error {
	if !p.FirstPaymentRatio.IsPositive() || p.FirstPaymentRatio.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("first payment ratio must be in (0,1), got %s", p.FirstPaymentRatio)
	}
	if p.ShortTermMin.GreaterThan(p.ShortTermMax) {
		return fmt.Errorf("short term min %s exceeds max %s", p.ShortTermMin, p.ShortTermMax)
	}
	if p.ShortTermMonths < 1 || p.LongTermMonths < 1 {
		return fmt.Errorf("installment months must be at least 1")
	}
	if p.MinorUnitPlaces < 0 {
		return fmt.Errorf("minor unit places must not be negative")
	}
	if p.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

// MinorUnit is the smallest representable amount, 0.01 for two places.
func (p Policy) MinorUnit() decimal.Decimal {
	return decimal.New(1, -p.MinorUnitPlaces)
}

// MonthsFor returns the installment count for a cart total.
func (p Policy) MonthsFor(total decimal.Decimal) int {
	if total.GreaterThanOrEqual(p.ShortTermMin) && total.LessThanOrEqual(p.ShortTermMax) {
		return p.ShortTermMonths
	}
	return p.LongTermMonths
}

// Plan is a computed split-payment schedule. FinalPayment is the last
// monthly installment and carries the rounding remainder.
type Plan struct {
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	FirstPayment   decimal.Decimal `json:"firstPayment"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	FinalPayment   decimal.Decimal `json:"finalPayment"`
	Months         int             `json:"months"`
	Currency       string          `json:"currency"`
}

// Compute splits total into a down payment and monthly installments.
func Compute(total decimal.Decimal, p Policy) (*Plan, error) {
	if !total.IsPositive() {
		return nil, errors.NewInvalidAmountError(fmt.Sprintf("total amount must be greater than 0, got %s", total))
	}
	if !total.Equal(total.Truncate(p.MinorUnitPlaces)) {
		return nil, errors.NewInvalidAmountError(
			fmt.Sprintf("total amount %s has more than %d decimal places", total, p.MinorUnitPlaces))
	}

	first := total.Mul(p.FirstPaymentRatio).Round(p.MinorUnitPlaces)
	balance := total.Sub(first)
	months := p.MonthsFor(total)

	monthly := balance.DivRound(decimal.NewFromInt(int64(months)), p.MinorUnitPlaces+4).Truncate(p.MinorUnitPlaces)
	final := balance.Sub(monthly.Mul(decimal.NewFromInt(int64(months - 1))))

	return &Plan{
		TotalAmount:    total,
		FirstPayment:   first,
		MonthlyPayment: monthly,
		FinalPayment:   final,
		Months:         months,
		Currency:       p.Currency,
	}, nil
}

// Sum adds up every payment in the plan.
func (pl *Plan) Sum() decimal.Decimal {
	return pl.FirstPayment.
		Add(pl.MonthlyPayment.Mul(decimal.NewFromInt(int64(pl.Months - 1)))).
		Add(pl.FinalPayment)
}

// Installment is a single due payment.
type Installment struct {
	Sequence int             `json:"sequence"`
	Kind     string          `json:"kind"`
	DueDate  time.Time       `json:"dueDate"`
	Amount   decimal.Decimal `json:"amount"`
}

const (
	KindDownPayment = "down_payment"
	KindMonthly     = "monthly"
)

// Schedule lays the plan out from start: the down payment is due on start,
// installment i is due i months later.
func (pl *Plan) Schedule(start time.Time) []Installment {
	out := make([]Installment, 0, pl.Months+1)
	out = append(out, Installment{Sequence: 0, Kind: KindDownPayment, DueDate: start, Amount: pl.FirstPayment})
	for i := 1; i <= pl.Months; i++ {
		amount := pl.MonthlyPayment
		if i == pl.Months {
			amount = pl.FinalPayment
		}
		out = append(out, Installment{
			Sequence: i,
			Kind:     KindMonthly,
			DueDate:  start.AddDate(0, i, 0),
			Amount:   amount,
		})
	}
	return out
}

// ValidatePlan checks a client-submitted plan against the policy. The
// submitted first payment and month count must match the policy exactly;
// first + monthly*months may drift from total by at most one minor unit
// per month.
func ValidatePlan(p Policy, total, first, monthly decimal.Decimal, months int) error {
	expected, err := Compute(total, p)
	if err != nil {
		return err
	}
	if months != expected.Months {
		return errors.NewInvalidAmountError(
			fmt.Sprintf("expected %d months for total %s, got %d", expected.Months, total, months))
	}
	if !first.Equal(expected.FirstPayment) {
		return errors.NewInvalidAmountError(
			fmt.Sprintf("expected first payment %s, got %s", expected.FirstPayment, first))
	}
	if !monthly.IsPositive() {
		return errors.NewInvalidAmountError("monthly payment must be greater than 0")
	}

	sum := first.Add(monthly.Mul(decimal.NewFromInt(int64(months))))
	tolerance := p.MinorUnit().Mul(decimal.NewFromInt(int64(months)))
	if sum.Sub(total).Abs().GreaterThan(tolerance) {
		return errors.NewInvalidAmountError(
			fmt.Sprintf("plan sums to %s but total is %s", sum, total))
	}
	return nil
}
