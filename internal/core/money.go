// Commission amounts are parsed from spreadsheet cells into integer cents.

package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a spreadsheet cell to cents.
//
// It accepts dot (12.34) and comma (12,34) decimal separators, an optional
// sign, a euro sign and thousands separators. When both separators appear,
// the rightmost one is the decimal separator. Values are rounded half up on
// the third decimal.
//
// Examples:
//
//	ParseAmount("12.34")      -> 1234, nil
//	ParseAmount("1.234,50 €") -> 123450, nil
//	ParseAmount("-3,5")       -> -350, nil
//	ParseAmount("n/a")        -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimPrefix(s, "€")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return 0, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	if cents, ok := parseDecimal(s); ok {
		return cents, nil
	}
	// Exponent forms ("1.2e+06") from numeric cells.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	const maxEuros = float64(math.MaxInt64 / 100)
	if math.Abs(f) > maxEuros {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(f * 100)), nil
}

// parseDecimal handles "[+-]digits[.digits]" exactly, rounding half up on
// the third decimal.
func parseDecimal(s string) (int64, bool) {
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, false
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv > math.MaxInt64/100 {
		return 0, false
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	cents := iv*100 + frac
	if neg {
		cents = -cents
	}
	return cents, true
}

// CoerceAmount is ParseAmount with zero-fill: anything that is not a number
// becomes zero.
func CoerceAmount(s string) Money {
	cents, err := ParseAmount(s)
	if err != nil {
		return Money{}
	}
	return Money{Cents: cents}
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Euros returns the euro value as a float64 for display purposes.
// Note: Use cents for calculations to avoid floating-point precision issues.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with a dot decimal separator ("120.50"), the
// format used in CSV exports and JSON series.
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
