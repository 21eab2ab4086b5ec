package valueobject

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// "15% deposit", "15 % of the deposit"
	leadingDepositPercent = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*%\s*(?:of\s+)?(?:the\s+)?deposit`)
	// "deposit 15%", "deposit of 15%", "deposit: 15 %"
	trailingDepositPercent = regexp.MustCompile(`(?i)deposit\s*(?:of\s*|:\s*|-\s*)?(\d+(?:[.,]\d+)?)\s*%`)
)

// DepositPercent finds a percentage written right before or right after the
// word "deposit" in free-text payment terms. The leading form wins.
func DepositPercent(terms string) (decimal.Decimal, bool) {
	if m := leadingDepositPercent.FindStringSubmatch(terms); m != nil {
		return parsePercent(m[1])
	}
	if m := trailingDepositPercent.FindStringSubmatch(terms); m != nil {
		return parsePercent(m[1])
	}
	return decimal.Zero, false
}

// LeadingDepositPercent only accepts the "NN% deposit" form
func LeadingDepositPercent(terms string) (decimal.Decimal, bool) {
	if m := leadingDepositPercent.FindStringSubmatch(terms); m != nil {
		return parsePercent(m[1])
	}
	return decimal.Zero, false
}

func parsePercent(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil || d.IsNegative() || d.GreaterThan(hundred) {
		return decimal.Zero, false
	}
	return d, true
}
