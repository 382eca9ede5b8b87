package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

func settings(rate, interest float64) models.FinanceSettings {
	return models.FinanceSettings{OwnerID: "owner", DownPaymentRate: rate, InterestRateAnnual: interest}
}

func TestDerive_ScenarioA(t *testing.T) {
	r := &models.Residence{Kind: models.KindCandidate, AskingPrice: f(4000000)}
	d := Derive(r, settings(0.15, 0.04), DefaultOptions)

	require.NotNil(t, d.DownPayment)
	assert.Equal(t, 600000.0, *d.DownPayment)
	assert.Equal(t, 3400000.0, *d.LoanAmount)
	assert.InDelta(t, 0.85, *d.LoanToValue, 1e-9)
	assert.Equal(t, 0.02, *d.AmortizationRate)
	assert.Equal(t, 5667.0, *d.MonthlyAmortization)
	assert.Equal(t, 11333.0, *d.MonthlyInterest)
}

func TestDerive_ScenarioB_OperatingCost(t *testing.T) {
	r := &models.Residence{
		Kind:             models.KindCandidate,
		AskingPrice:      f(3000000),
		LivingArea:       f(80),
		ConstructionYear: y(1990),
		EnergyClass:      "F",
	}
	d := Derive(r, settings(0.15, 0.04), DefaultOptions)

	require.NotNil(t, d.MonthlyOperatingCost)
	assert.Equal(t, 46305.0, *d.OperatingCostAnnual)
	assert.Equal(t, 3859.0, *d.MonthlyOperatingCost)
	assert.True(t, d.OperatingCostEstimated)
	assert.False(t, d.OperatingCostUnknown)
}

func TestDerive_TotalIsSumOfRoundedParts(t *testing.T) {
	r := &models.Residence{
		Kind:                models.KindCandidate,
		AskingPrice:         f(2345678),
		MonthlyFee:          f(4321),
		OperatingCostAnnual: f(25555),
	}
	s := settings(0.17, 0.0385)
	d := Derive(r, s, DefaultOptions)

	down := math.Round(2345678 * 0.17)
	loan := 2345678 - down
	amort := math.Round(loan * 0.02 / 12)
	interest := math.Round(loan * 0.0385 / 12)
	operating := math.Round(25555.0 / 12)

	require.NotNil(t, d.TotalMonthlyCost)
	assert.Equal(t, 4321+operating+amort+interest, *d.TotalMonthlyCost)
	assert.False(t, d.OperatingCostEstimated)
}

func TestDerive_CandidateDownPayment(t *testing.T) {
	tests := []struct {
		name         string
		price        float64
		rate         float64
		expectedDown float64
	}{
		{"zero rate", 1000000, 0, 0},
		{"full cash", 1000000, 1, 1000000},
		{"rate above one clamps", 1000000, 1.5, 1000000},
		{"negative rate clamps", 1000000, -0.2, 0},
		{"rounded", 1234567, 0.15, 185185},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(&models.Residence{Kind: models.KindCandidate, AskingPrice: f(tt.price)}, settings(tt.rate, 0.04), DefaultOptions)
			require.NotNil(t, d.DownPayment)
			assert.Equal(t, tt.expectedDown, *d.DownPayment)
			assert.Equal(t, tt.price-tt.expectedDown, *d.LoanAmount)
			assert.GreaterOrEqual(t, *d.LoanAmount, 0.0)
		})
	}
}

func TestDerive_CandidateWithoutPrice(t *testing.T) {
	for name, price := range map[string]*float64{
		"missing":  nil,
		"zero":     f(0),
		"negative": f(-100),
		"NaN":      f(math.NaN()),
	} {
		t.Run(name, func(t *testing.T) {
			d := Derive(&models.Residence{Kind: models.KindCandidate, AskingPrice: price, MonthlyFee: f(3000)}, settings(0.15, 0.04), DefaultOptions)
			assert.Equal(t, models.DerivedMetrics{}, d)
		})
	}
}

func TestAmortizationRate(t *testing.T) {
	tests := []struct {
		name     string
		ltv      float64
		loan     float64
		income   float64
		expected float64
	}{
		{"low ltv", 0.40, 1000000, 0, 0},
		{"at 0.50 exclusive", 0.50, 1000000, 0, 0},
		{"just above 0.50", 0.5001, 1000000, 0, 0.01},
		{"at 0.70 exclusive", 0.70, 1000000, 0, 0.01},
		{"just above 0.70", 0.7001, 1000000, 0, 0.02},
		{"dti surcharge", 0.85, 3400000, 600000, 0.03},
		{"dti exactly 4.5 no surcharge", 0.85, 2700000, 600000, 0.02},
		{"dti on low ltv", 0.30, 5000000, 1000000, 0.01},
		{"zero income no surcharge", 0.85, 3400000, 0, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AmortizationRate(tt.ltv, tt.loan, tt.income), 1e-12)
		})
	}
}

func TestDerive_DTISurchargeUsesSettingsIncome(t *testing.T) {
	s := settings(0.15, 0.04)
	s.MonthlyIncome1 = f(30000)
	s.MonthlyIncome2 = f(20000)

	d := Derive(&models.Residence{Kind: models.KindCandidate, AskingPrice: f(4000000)}, s, DefaultOptions)
	// 3 400 000 / 600 000 = 5.67 > 4.5
	assert.InDelta(t, 0.03, *d.AmortizationRate, 1e-12)
	assert.Equal(t, math.Round(3400000*0.03/12), *d.MonthlyAmortization)
}

func TestDerive_Current(t *testing.T) {
	r := &models.Residence{
		Kind:                models.KindCurrent,
		Valuation:           f(5000000),
		MonthlyFee:          f(2500),
		OperatingCostAnnual: f(24000),
		Loans: []models.Loan{
			{Principal: 2000000, InterestRateAnnual: 0.035},
			{Principal: 1000000, InterestRateAnnual: 0.045},
		},
	}
	d := Derive(r, settings(0.15, 0.99), DefaultOptions)

	assert.Equal(t, 3000000.0, *d.LoanAmount)
	assert.InDelta(t, 0.6, *d.LoanToValue, 1e-12)
	assert.Equal(t, 0.01, *d.AmortizationRate)
	assert.Equal(t, 2500.0, *d.MonthlyAmortization)
	// each loan carries its own rate; settings rate is ignored
	assert.Equal(t, math.Round(2000000*0.035/12)+math.Round(1000000*0.045/12), *d.MonthlyInterest)
	require.NotNil(t, d.Equity)
	assert.Equal(t, 2000000.0, *d.Equity)
	assert.Equal(t, 2500+2000+2500+*d.MonthlyInterest, *d.TotalMonthlyCost)
}

func TestDerive_CurrentEdgeCases(t *testing.T) {
	t.Run("no valuation gives zero ltv", func(t *testing.T) {
		r := &models.Residence{Kind: models.KindCurrent, Loans: []models.Loan{{Principal: 1000000, InterestRateAnnual: 0.04}}}
		d := Derive(r, settings(0.15, 0.04), DefaultOptions)
		assert.Equal(t, 0.0, *d.LoanToValue)
		assert.Equal(t, 0.0, *d.AmortizationRate)
		assert.Nil(t, d.Equity)
	})

	t.Run("underwater hides equity", func(t *testing.T) {
		r := &models.Residence{Kind: models.KindCurrent, Valuation: f(1000000), Loans: []models.Loan{{Principal: 1200000, InterestRateAnnual: 0.04}}}
		d := Derive(r, settings(0.15, 0.04), DefaultOptions)
		assert.Nil(t, d.Equity)
		assert.Nil(t, d.DownPayment)
		assert.Equal(t, 0.02, *d.AmortizationRate)
	})

	t.Run("negative principal ignored", func(t *testing.T) {
		r := &models.Residence{Kind: models.KindCurrent, Valuation: f(1000000), Loans: []models.Loan{{Principal: -5, InterestRateAnnual: 0.04}}}
		d := Derive(r, settings(0.15, 0.04), DefaultOptions)
		assert.Equal(t, 0.0, *d.LoanAmount)
		assert.Equal(t, 1000000.0, *d.Equity)
	})
}

func TestDerive_OperatingCostUnknown(t *testing.T) {
	r := &models.Residence{Kind: models.KindCandidate, AskingPrice: f(2000000), MonthlyFee: f(1000)}
	d := Derive(r, settings(0.15, 0.04), Options{ImputeOperatingCost: false})

	assert.True(t, d.OperatingCostUnknown)
	assert.Nil(t, d.MonthlyOperatingCost)
	assert.Equal(t, 1000+*d.MonthlyAmortization+*d.MonthlyInterest, *d.TotalMonthlyCost)
}

func TestDeriveAll_RecomputesAgainstGivenSettings(t *testing.T) {
	residences := []models.Residence{
		{ID: "a", Kind: models.KindCandidate, AskingPrice: f(4000000)},
		{ID: "b", Kind: models.KindCandidate},
	}
	commutes := map[string][]models.CommuteResult{"a": {{PlaceID: "p", Minutes: 25}}}

	low := DeriveAll(residences, settings(0.15, 0.04), DefaultOptions, commutes)
	high := DeriveAll(residences, settings(0.50, 0.04), DefaultOptions, commutes)

	require.Len(t, low, 2)
	assert.Equal(t, 600000.0, *low[0].Derived.DownPayment)
	assert.Equal(t, 2000000.0, *high[0].Derived.DownPayment)
	assert.Len(t, low[0].Commutes, 1)
	assert.NotNil(t, low[1].Commutes)
	assert.Nil(t, low[1].Derived.TotalMonthlyCost)
}
