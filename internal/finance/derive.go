package finance

import (
	"math"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

// Options tunes derivation behaviour that is not owner specific.
type Options struct {
	// ImputeOperatingCost substitutes an estimate when the yearly operating
	// cost is missing or zero.
	ImputeOperatingCost bool
}

// DefaultOptions imputes missing operating costs.
var DefaultOptions = Options{ImputeOperatingCost: true}

// Derive computes the monthly cost breakdown of r against the given
// settings. A candidate without a usable asking price yields no derived
// values at all.
func Derive(r *models.Residence, s models.FinanceSettings, opts Options) models.DerivedMetrics {
	var d models.DerivedMetrics
	if r == nil {
		return d
	}

	switch r.Kind {
	case models.KindCurrent:
		deriveCurrent(&d, r, s)
	default:
		if !deriveCandidate(&d, r, s) {
			return models.DerivedMetrics{}
		}
	}

	op := ResolveOperatingCost(r.OperatingCostAnnual, r.LivingArea, r.ConstructionYear, r.EnergyClass, opts.ImputeOperatingCost)
	d.OperatingCostEstimated = op.Estimated
	d.OperatingCostUnknown = op.Unknown
	d.OperatingCostAnnual = op.Annual

	monthlyOperating := 0.0
	if op.Annual != nil {
		monthlyOperating = math.Round(*op.Annual / MonthsPerYear)
		d.MonthlyOperatingCost = ptr(monthlyOperating)
	}

	fee, _ := positive(r.MonthlyFee)
	total := fee + monthlyOperating + deref(d.MonthlyAmortization) + deref(d.MonthlyInterest)
	d.TotalMonthlyCost = ptr(total)
	return d
}

// DeriveAll builds views for every residence against the same settings.
// Commute results are attached by residence id when supplied.
func DeriveAll(residences []models.Residence, s models.FinanceSettings, opts Options, commutes map[string][]models.CommuteResult) []models.ResidenceView {
	views := make([]models.ResidenceView, 0, len(residences))
	for i := range residences {
		r := residences[i]
		results := commutes[r.ID]
		if results == nil {
			results = []models.CommuteResult{}
		}
		views = append(views, models.ResidenceView{
			Residence: r,
			Derived:   Derive(&r, s, opts),
			Commutes:  results,
		})
	}
	return views
}

func deriveCandidate(d *models.DerivedMetrics, r *models.Residence, s models.FinanceSettings) bool {
	price, ok := positive(r.AskingPrice)
	if !ok {
		return false
	}

	rate := clamp(finiteOr(s.DownPaymentRate, 0), 0, 1)
	down := clamp(math.Round(price*rate), 0, price)
	loan := price - down
	ltv := LoanToValue(loan, price)
	amortRate := AmortizationRate(ltv, loan, s.AnnualIncome())

	d.DownPayment = ptr(down)
	d.LoanAmount = ptr(loan)
	d.LoanToValue = ptr(ltv)
	d.AmortizationRate = ptr(amortRate)
	d.MonthlyAmortization = ptr(math.Round(loan * amortRate / MonthsPerYear))
	d.MonthlyInterest = ptr(math.Round(loan * nonNegative(s.InterestRateAnnual) / MonthsPerYear))
	return true
}

func deriveCurrent(d *models.DerivedMetrics, r *models.Residence, s models.FinanceSettings) {
	var debt, interest float64
	for _, l := range r.Loans {
		principal, ok := positive(&l.Principal)
		if !ok {
			continue
		}
		debt += principal
		interest += math.Round(principal * nonNegative(l.InterestRateAnnual) / MonthsPerYear)
	}

	valuation, hasValuation := positive(r.Valuation)
	ltv := LoanToValue(debt, valuation)
	amortRate := AmortizationRate(ltv, debt, s.AnnualIncome())

	d.LoanAmount = ptr(debt)
	d.LoanToValue = ptr(ltv)
	d.AmortizationRate = ptr(amortRate)
	d.MonthlyAmortization = ptr(math.Round(debt * amortRate / MonthsPerYear))
	d.MonthlyInterest = ptr(interest)

	if hasValuation && valuation-debt > 0 {
		equity := valuation - debt
		d.Equity = ptr(equity)
		d.DownPayment = ptr(equity)
	}
}

// LoanToValue is loan/value, or 0 when either side is not positive.
func LoanToValue(loan, value float64) float64 {
	if value <= 0 || loan <= 0 {
		return 0
	}
	return loan / value
}

// AmortizationRate is the yearly amortization rate for a loan: the LTV tier
// plus the debt-to-income surcharge.
func AmortizationRate(ltv, loan, annualIncome float64) float64 {
	var rate float64
	switch {
	case ltv > HighLTVBound:
		rate = HighLTVRate
	case ltv > MidLTVBound:
		rate = MidLTVRate
	}
	if annualIncome > 0 && loan/annualIncome > DTIThreshold {
		rate += DTISurcharge
	}
	return rate
}

// positive reports v when it is a finite number above zero.
func positive(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return 0, false
	}
	return *v, true
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func ptr(v float64) *float64 {
	return &v
}
