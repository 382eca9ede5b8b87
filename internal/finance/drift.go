package finance

import (
	"math"
	"strings"
)

// OperatingCost is the yearly operating cost used for a residence and how it
// was obtained.
type OperatingCost struct {
	Annual    *float64
	Estimated bool
	Unknown   bool
}

// ImputeOperatingCost estimates the yearly operating cost from living area,
// construction year and energy class. Unknown inputs fall back to neutral
// factors.
func ImputeOperatingCost(livingArea *float64, constructionYear *int, energyClass string) float64 {
	cost := DriftBase
	if area, ok := positive(livingArea); ok {
		cost += DriftPerSquareMeter * area
	}
	cost *= yearFactor(constructionYear)
	cost *= energyFactor(energyClass)
	return math.Max(0, math.Round(cost))
}

// ResolveOperatingCost returns the supplied yearly cost when it is a usable
// positive number. A missing or zero value is imputed, unless imputation is
// disabled, in which case the cost is flagged unknown.
func ResolveOperatingCost(raw *float64, livingArea *float64, constructionYear *int, energyClass string, impute bool) OperatingCost {
	if v, ok := positive(raw); ok {
		return OperatingCost{Annual: &v}
	}
	if !impute {
		return OperatingCost{Unknown: true}
	}
	v := ImputeOperatingCost(livingArea, constructionYear, energyClass)
	return OperatingCost{Annual: &v, Estimated: true}
}

func yearFactor(year *int) float64 {
	if year == nil {
		return 1.00
	}
	switch y := *year; {
	case y >= 2000:
		return 1.00
	case y >= 1980:
		return 1.05
	case y >= 1900:
		return 1.10
	default:
		return 1.00
	}
}

func energyFactor(class string) float64 {
	class = strings.ToUpper(strings.TrimSpace(class))
	if class == "" {
		return 1.00
	}
	switch class[0] {
	case 'A', 'B':
		return 0.90
	case 'E', 'F':
		return 1.05
	case 'G':
		return 1.10
	default:
		return 1.00
	}
}
