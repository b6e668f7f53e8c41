package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is a fixed-point monetary amount in cents. Prices never touch
// floating point: "150.00" parses to 15000.
type Money int64

// ParseMoney parses a two-decimal price string such as "150.00" or "99.9".
// More than two fractional digits, signs other than the digits themselves,
// or garbage input yield an error.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole = s[:i]
		frac = s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q: at most two decimal places", s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	cents := int64(0)
	if frac != "" {
		// ParseInt alone would let a sign through ("1.-5").
		for i := 0; i < len(frac); i++ {
			if frac[i] < '0' || frac[i] > '9' {
				return 0, fmt.Errorf("invalid amount %q", s)
			}
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		if len(frac) == 1 {
			cents *= 10
		}
	}

	return Money(units*100 + cents), nil
}

// String renders the amount with exactly two decimal places.
func (m Money) String() string {
	neg := m < 0
	v := int64(m)
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d.%02d", v/100, v%100)
	if neg {
		return "-" + s
	}
	return s
}

// Cents returns the raw cent count for persistence.
func (m Money) Cents() int64 { return int64(m) }
