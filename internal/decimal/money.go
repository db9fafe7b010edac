package decimal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FromString parses decimal from string, surrounding whitespace is ignored
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// Coerce converts the textual amount of a CII element into a float.
// Empty or unparsable text yields 0; a legitimately zero amount and a
// missing one are indistinguishable afterwards.
func Coerce(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	d, err := FromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// CoercePtr is Coerce for optional elements
func CoercePtr(s *string) float64 {
	if s == nil {
		return 0
	}
	return Coerce(*s)
}

// CoerceFirst coerces the first element of a repeatable amount
func CoerceFirst(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	return Coerce(values[0])
}

// IsZero reports whether v is exactly zero
func IsZero(v float64) bool {
	return decimal.NewFromFloat(v).IsZero()
}
