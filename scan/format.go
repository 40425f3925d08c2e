package scan

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SymbolLeft reports whether a matched amount token carries the euro sign
// on the left. Used to reproduce the source placement when formatting a
// replacement value.
func SymbolLeft(src string) bool {
	return strings.HasPrefix(strings.TrimSpace(src), "€")
}

// FormatAmount renders v with grouping dots, a decimal comma and two
// decimals, placing the euro sign on the requested side.
func FormatAmount(v float64, symbolLeft bool) string {
	s := group(strconv.FormatFloat(v, 'f', 2, 64))
	if symbolLeft {
		return "€ " + s
	}
	return s + " €"
}

// FormatDate renders t as DD-MM-YYYY.
func FormatDate(t time.Time) string {
	return t.Format("02-01-2006")
}

// ParseAmount reads the numeric value of a matched amount token, in either
// symbol placement.
func ParseAmount(text string) (float64, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSuffix(s, "€")
	s = strings.NewReplacer(" ", "", ".", "").Replace(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("scan: parsing amount %q: %w", text, err)
	}
	return v, nil
}

// group converts "7500.50" to "7.500,50": decimal point becomes a comma,
// thousands get dots.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
