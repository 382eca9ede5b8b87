// Package money coerces the loosely typed numbers that arrive from forms and
// scraped listings ("4 500 000 kr", "3 250,50", {"amount": 1200}) into
// optional float64 values. Anything that cannot be read as a finite number is
// reported as absent, never as zero.
package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// amountKeys are the object fields consulted, in order, when a value is a
// wrapped amount.
var amountKeys = []string{"amount", "value", "belopp"}

// Amounter is implemented by wrapped amount types that expose their number.
type Amounter interface {
	Amount() any
}

// Parse returns the numeric value of v and whether one could be read.
func Parse(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case *float64:
		if x == nil {
			return 0, false
		}
		return finite(*x)
	case json.Number:
		return ParseString(x.String())
	case decimal.Decimal:
		f, _ := x.Float64()
		return finite(f)
	case string:
		return ParseString(x)
	case map[string]any:
		for _, key := range amountKeys {
			if inner, ok := x[key]; ok {
				return Parse(inner)
			}
		}
		return 0, false
	case Amounter:
		return Parse(x.Amount())
	default:
		return 0, false
	}
}

// ParsePtr is Parse for optional model fields.
func ParsePtr(v any) *float64 {
	f, ok := Parse(v)
	if !ok {
		return nil
	}
	return &f
}

// ParseString reads a human formatted number. Whitespace and currency text
// are dropped; a comma is a decimal separator unless it repeats, in which
// case it groups thousands. When both comma and dot appear the later one is
// the decimal separator.
func ParseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := normalizeSeparators(b.String())
	if cleaned == "" || strings.Trim(cleaned, ".") == "" {
		return 0, false
	}
	if negative {
		cleaned = "-" + cleaned
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return finite(f)
}

func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return replaceDecimal(s, ",")
		}
		s = strings.ReplaceAll(s, ",", "")
		return replaceDecimal(s, ".")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	default:
		return s
	}
}

// replaceDecimal keeps only the last sep as the decimal point.
func replaceDecimal(s, sep string) string {
	i := strings.LastIndex(s, sep)
	return strings.ReplaceAll(s[:i], sep, "") + "." + s[i+len(sep):]
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
