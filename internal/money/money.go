// Package money implements the fixed-point revenue amount used across the service.
//
// Amounts are stored as an integer count of kopecks. No floats participate in
// arithmetic; float conversion exists only for display purposes.
package money

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in minor currency units (kopecks).
type Money struct {
	Cents int64 `json:"cents"`
}

var ErrInvalidAmount = errors.New("money: invalid amount")

const currencySign = "₽" // ₽

// FromCents wraps a raw minor-unit value.
func FromCents(v int64) Money { return Money{Cents: v} }

func (m Money) IsNegative() bool { return m.Cents < 0 }
func (m Money) IsZero() bool     { return m.Cents == 0 }

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money { return Money{Cents: m.Cents + other.Cents} }

// Rubles returns the amount as a float64 for display only.
func (m Money) Rubles() float64 { return float64(m.Cents) / 100.0 }

// String renders the amount in the display format used by the dashboard,
// e.g. "12 345,67 ₽": space-grouped whole part, comma decimal separator.
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(' ')
		b.WriteString(digits[i : i+3])
	}
	b.WriteByte(',')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	b.WriteByte(' ')
	b.WriteString(currencySign)
	return b.String()
}

// Parse reads a locale-formatted decimal string into an amount.
//
// Both comma and dot are accepted as the decimal separator; any other
// punctuation is treated as digit grouping and ignored. The decimal separator
// is the last '.' or ',' followed by one or two digits; a trailing group of
// exactly three digits is grouping, not a fraction. Fractional digits beyond
// the second are not accepted. Negative amounts are rejected.
//
//	Parse("123,45") == Parse("123.45") == 12345 kopecks
//	Parse("1 234")  == 123400 kopecks
//	Parse("1.234")  == 123400 kopecks (grouping, not decimal)
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, currencySign, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if s[0] == '+' || s[0] == '-' {
		return Money{}, ErrInvalidAmount
	}

	whole := s
	frac := ""
	if idx := strings.LastIndexAny(s, ".,"); idx >= 0 {
		tail := s[idx+1:]
		switch {
		case len(tail) >= 1 && len(tail) <= 2:
			whole, frac = s[:idx], tail
		case len(tail) == 3:
			// trailing thousands group
		default:
			return Money{}, ErrInvalidAmount
		}
	}

	whole = stripGrouping(whole)
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return Money{}, ErrInvalidAmount
	}

	iv, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxWhole = (1<<63 - 1) / 100
	if iv > maxWhole {
		return Money{}, ErrInvalidAmount
	}

	var fracCents int64
	if len(frac) > 0 {
		fracCents = int64(frac[0]-'0') * 10
		if len(frac) > 1 {
			fracCents += int64(frac[1] - '0')
		}
	}
	return Money{Cents: iv*100 + fracCents}, nil
}

func stripGrouping(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
