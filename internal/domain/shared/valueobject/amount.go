package valueobject

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places every monetary value is kept at
const MinorUnits int32 = 2

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.RequireFromString("0.001")

	// leadingNumber matches the numeric prefix a lenient form parser accepts,
	// e.g. "12.5abc" -> "12.5", "  -3" -> "-3", ".5" -> ".5"
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// Round2 rounds an amount to two decimal places, half away from zero
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnits)
}

// NearlyEqual compares two amounts after rounding, tolerating float noise
// that arrives from parsed form input
func NearlyEqual(a, b decimal.Decimal) bool {
	return Round2(a).Sub(Round2(b)).Abs().LessThanOrEqual(tolerance)
}

// ParseAmount parses free form numeric text the way a fast-entry form does:
// the leading numeric prefix is used and anything unparseable becomes zero.
// It never returns an error.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	match := leadingNumber.FindString(s)
	if match == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		// "12." style prefixes
		d, err = decimal.NewFromString(strings.TrimSuffix(match, "."))
		if err != nil {
			return decimal.Zero
		}
	}
	return d
}

// ParseNonNegativeAmount is ParseAmount floored at zero
func ParseNonNegativeAmount(raw string) decimal.Decimal {
	return FloorZero(ParseAmount(raw))
}

// ParseOptionalAmount returns nil for blank input, otherwise the parsed amount.
// Used for fields where "empty" and "zero" mean different things.
func ParseOptionalAmount(raw string) *decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d := ParseAmount(raw)
	return &d
}

// FloorZero clamps negative amounts to zero
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// PercentOf returns round2(base * percent / 100)
func PercentOf(base, percent decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(percent).Div(hundred))
}

// ShareOf returns the percentage part/base*100 rounded to two places, or zero
// when base is zero
func ShareOf(part, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return Round2(part.Div(base).Mul(hundred))
}

// Hundred returns 100 as a decimal
func Hundred() decimal.Decimal {
	return hundred
}
