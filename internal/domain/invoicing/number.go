package invoicing

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberFormat renders sequence values as invoice numbers.
// Format: PREFIX-YYYY-NNNNN (e.g., INV-2026-00001)
type NumberFormat struct {
	Prefix string
	Width  int
	// Max is the highest sequence value a year may reach; 0 means unbounded
	Max int64
}

// DefaultNumberFormat returns the INV-YYYY-NNNNN format
func DefaultNumberFormat() NumberFormat {
	return NumberFormat{Prefix: "INV", Width: 5}
}

// YearPrefix returns the part shared by every number of year, e.g. "INV-2026-"
func (f NumberFormat) YearPrefix(year int) string {
	return fmt.Sprintf("%s-%d-", f.Prefix, year)
}

// Format renders one sequence value
func (f NumberFormat) Format(year int, seq int64) string {
	width := f.Width
	if width <= 0 {
		width = 5
	}
	return fmt.Sprintf("%s%0*d", f.YearPrefix(year), width, seq)
}

// Exhausted reports whether seq is past the configured maximum
func (f NumberFormat) Exhausted(seq int64) bool {
	return f.Max > 0 && seq > f.Max
}

// ParseSequence extracts the sequence value from a number of year. ok is false
// for numbers of another year or format, e.g. manually typed ones.
func (f NumberFormat) ParseSequence(year int, number string) (int64, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(number), f.YearPrefix(year))
	if !found || rest == "" {
		return 0, false
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}
