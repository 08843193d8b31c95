package service

import (
	"strconv"
	"strings"
)

// formatAmount renders a dollar amount with thousands separators, keeping
// cents only when they are non-zero: 300000 -> "300,000", 1234.5 -> "1,234.50"
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	intPart, fracPart, _ := strings.Cut(s, ".")

	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	out := grouped.String()
	if negative {
		out = "-" + out
	}
	if fracPart != "00" {
		out += "." + fracPart
	}

	return out
}
