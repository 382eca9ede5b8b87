// Package finance turns raw residence numbers into a monthly cost of
// ownership. Everything here is pure and safe to recompute on every read.
package finance

const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DriftBase is the fixed part of the imputed yearly operating cost
	DriftBase = 30000.0

	// DriftPerSquareMeter is added per square meter of living area
	DriftPerSquareMeter = 150.0

	// DTIThreshold is the loan to yearly income ratio above which the
	// amortization surcharge applies
	DTIThreshold = 4.5

	// DTISurcharge is added to the amortization rate above DTIThreshold
	DTISurcharge = 0.01
)

// Loan-to-value amortization tiers. Bounds are exclusive.
const (
	HighLTVBound = 0.70
	HighLTVRate  = 0.02
	MidLTVBound  = 0.50
	MidLTVRate   = 0.01
)
