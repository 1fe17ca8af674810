package installment

import (
	"testing"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ==========================
// Compute
// ==========================

func TestCompute_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		first   string
		monthly string
		final   string
		months  int
	}{
		{"short term cart", "600000", "300000", "100000", "100000", 3},
		{"long term cart with remainder", "280000", "140000", "23333.33", "23333.35", 6},
		{"short term lower bound", "450000", "225000", "75000", "75000", 3},
		{"short term upper bound", "1000000", "500000", "166666.66", "166666.68", 3},
		{"just above upper bound", "1000000.01", "500000.01", "83333.33", "83333.35", 6},
		{"odd minor unit rounds half away", "0.03", "0.02", "0", "0.01", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compute(d(tt.total), DefaultPolicy())
			require.NoError(t, err)

			assert.True(t, d(tt.first).Equal(plan.FirstPayment), "first: %s", plan.FirstPayment)
			assert.True(t, d(tt.monthly).Equal(plan.MonthlyPayment), "monthly: %s", plan.MonthlyPayment)
			assert.True(t, d(tt.final).Equal(plan.FinalPayment), "final: %s", plan.FinalPayment)
			assert.Equal(t, tt.months, plan.Months)
			assert.Equal(t, "NGN", plan.Currency)
			assert.True(t, plan.Sum().Equal(d(tt.total)), "sum: %s", plan.Sum())
		})
	}
}

func TestCompute_ReconcilesExactly(t *testing.T) {
	policy := DefaultPolicy()
	for _, total := range []string{"1", "0.01", "99.99", "123456.78", "449999.99", "777777.77", "2500000.05"} {
		plan, err := Compute(d(total), policy)
		require.NoError(t, err)
		assert.True(t, plan.Sum().Equal(d(total)), "total %s sums to %s", total, plan.Sum())
		assert.False(t, plan.FinalPayment.LessThan(plan.MonthlyPayment), "final below monthly for %s", total)
	}
}

func TestCompute_RejectsNonPositiveTotals(t *testing.T) {
	for _, total := range []string{"0", "-1", "-450000"} {
		_, err := Compute(d(total), DefaultPolicy())
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidAmount))
	}
}

func TestCompute_RejectsSubMinorUnits(t *testing.T) {
	_, err := Compute(d("100.005"), DefaultPolicy())
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidAmount))
}

func TestCompute_IsPure(t *testing.T) {
	a, err := Compute(d("280000"), DefaultPolicy())
	require.NoError(t, err)
	b, err := Compute(d("280000"), DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompute_HonorsPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.FirstPaymentRatio = d("0.3")
	policy.LongTermMonths = 12

	plan, err := Compute(d("120000"), policy)
	require.NoError(t, err)
	assert.True(t, d("36000").Equal(plan.FirstPayment))
	assert.Equal(t, 12, plan.Months)
	assert.True(t, d("7000").Equal(plan.MonthlyPayment))
}

// ==========================
// Schedule
// ==========================

func TestPlan_Schedule(t *testing.T) {
	plan, err := Compute(d("280000"), DefaultPolicy())
	require.NoError(t, err)

	start := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	schedule := plan.Schedule(start)
	require.Len(t, schedule, 7)

	assert.Equal(t, KindDownPayment, schedule[0].Kind)
	assert.Equal(t, start, schedule[0].DueDate)
	assert.Equal(t, start.AddDate(0, 6, 0), schedule[6].DueDate)
	assert.True(t, d("23333.35").Equal(schedule[6].Amount))

	sum := decimal.Zero
	for i, inst := range schedule {
		assert.Equal(t, i, inst.Sequence)
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(d("280000")))
}

// ==========================
// ValidatePlan
// ==========================

func TestValidatePlan(t *testing.T) {
	policy := DefaultPolicy()
	tests := []struct {
		name    string
		total   string
		first   string
		monthly string
		months  int
		wantErr bool
	}{
		{"exact plan", "600000", "300000", "100000", 3, false},
		{"client rounding within tolerance", "280000", "140000", "23333.33", 6, false},
		{"client rounding up within tolerance", "280000", "140000", "23333.34", 6, false},
		{"wrong months", "600000", "300000", "50000", 6, true},
		{"wrong first payment", "600000", "200000", "133333.33", 3, true},
		{"monthly too small", "280000", "140000", "20000", 6, true},
		{"zero monthly", "600000", "300000", "0", 3, true},
		{"zero total", "0", "0", "0", 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlan(policy, d(tt.total), d(tt.first), d(tt.monthly), tt.months)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidAmount))
				return
			}
			assert.NoError(t, err)
		})
	}
}

// ==========================
// Policy
// ==========================

func TestPolicyFromConfig(t *testing.T) {
	cfg := config.InstallmentConfig{
		Currency:          "NGN",
		FirstPaymentRatio: "0.5",
		ShortTermMin:      "450000",
		ShortTermMax:      "1000000",
		ShortTermMonths:   3,
		LongTermMonths:    6,
		MinorUnitPlaces:   2,
	}

	p, err := PolicyFromConfig(cfg)
	require.NoError(t, err)
	assert.True(t, p.FirstPaymentRatio.Equal(d("0.5")))
	assert.True(t, p.MinorUnit().Equal(d("0.01")))
	assert.Equal(t, 3, p.MonthsFor(d("500000")))
	assert.Equal(t, 6, p.MonthsFor(d("100")))
}

func TestPolicyFromConfig_Invalid(t *testing.T) {
	base := config.InstallmentConfig{
		Currency:          "NGN",
		FirstPaymentRatio: "0.5",
		ShortTermMin:      "450000",
		ShortTermMax:      "1000000",
		ShortTermMonths:   3,
		LongTermMonths:    6,
		MinorUnitPlaces:   2,
	}

	tests := []struct {
		name   string
		mutate func(*config.InstallmentConfig)
	}{
		{"ratio not a number", func(c *config.InstallmentConfig) { c.FirstPaymentRatio = "half" }},
		{"ratio of one", func(c *config.InstallmentConfig) { c.FirstPaymentRatio = "1" }},
		{"ratio of zero", func(c *config.InstallmentConfig) { c.FirstPaymentRatio = "0" }},
		{"min above max", func(c *config.InstallmentConfig) { c.ShortTermMin = "2000000" }},
		{"max not a number", func(c *config.InstallmentConfig) { c.ShortTermMax = "lots" }},
		{"zero months", func(c *config.InstallmentConfig) { c.LongTermMonths = 0 }},
		{"missing currency", func(c *config.InstallmentConfig) { c.Currency = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := PolicyFromConfig(cfg)
			assert.Error(t, err)
		})
	}
}
