package histogram

import (
	"strconv"
	"strings"
)

// NormalizeCount expands a K/M/G suffixed wait count into a plain number.
//
// "12.5K" becomes "12500.0" and "3M" becomes "3000000.0". Values without a
// recognized suffix, including other trailing letters, are returned unchanged,
// so "450" stays "450" rather than becoming "450.0".
func NormalizeCount(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	var factor float64
	switch s[len(s)-1] {
	case 'K':
		factor = 1e3
	case 'M':
		factor = 1e6
	case 'G':
		factor = 1e9
	default:
		return s
	}

	mantissa, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
	if err != nil {
		return s
	}
	return formatFloat(mantissa * factor)
}

// formatFloat prints a float with at least one fractional digit: 1200 -> "1200.0".
func formatFloat(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(out, ".eEnN") {
		out += ".0"
	}
	return out
}
