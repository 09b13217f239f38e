// Package money provides the fixed-point monetary value used by the ledger
// and the position aggregator.
package money

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fractional digits every Money value carries.
	Scale = 6
	// Precision is the number of significant digits kept when parsing input.
	Precision = 13
)

// Money is an immutable decimal with exactly Scale fractional digits.
// Rounding is always half-to-even.
type Money struct {
	d decimal.Decimal
}

var (
	Zero = Money{d: decimal.Zero}
	One  = FromInt(1)
)

// Parse reads a decimal string, rounds it to Precision significant digits
// and then to Scale fractional digits.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("empty decimal string")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return normalize(roundSignificant(d, Precision)), nil
}

// ParseExact reads a stored decimal string. Unlike Parse it only rounds to
// Scale.
func ParseExact(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("invalid stored decimal %q: %w", s, err)
	}
	return normalize(d), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromInt returns n as Money.
func FromInt(n int64) Money {
	return normalize(decimal.NewFromInt(n))
}

// FromDecimal normalises an arbitrary decimal to Money.
func FromDecimal(d decimal.Decimal) Money {
	return normalize(d)
}

func normalize(d decimal.Decimal) Money {
	return Money{d: d.RoundBank(Scale)}
}

// roundSignificant rounds d half-to-even so its coefficient has at most
// digits significant digits.
func roundSignificant(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	n := int32(len(new(big.Int).Abs(d.Coefficient()).String()))
	if n <= digits {
		return d
	}
	return d.RoundBank(-(d.Exponent() + n - digits))
}

func (m Money) Add(n Money) Money        { return normalize(m.d.Add(n.d)) }
func (m Money) Sub(n Money) Money        { return normalize(m.d.Sub(n.d)) }
func (m Money) Mul(n Money) Money        { return normalize(m.d.Mul(n.d)) }
func (m Money) MulInt(units int64) Money { return normalize(m.d.Mul(decimal.NewFromInt(units))) }
func (m Money) Neg() Money               { return Money{d: m.d.Neg()} }

func (m Money) Sign() int                { return m.d.Sign() }
func (m Money) IsZero() bool             { return m.d.IsZero() }
func (m Money) IsNegative() bool         { return m.d.IsNegative() }
func (m Money) IsPositive() bool         { return m.d.IsPositive() }
func (m Money) Cmp(n Money) int          { return m.d.Cmp(n.d) }
func (m Money) Equal(n Money) bool       { return m.d.Equal(n.d) }
func (m Money) LessThan(n Money) bool    { return m.d.LessThan(n.d) }
func (m Money) GreaterThan(n Money) bool { return m.d.GreaterThan(n.d) }
func (m Money) Decimal() decimal.Decimal { return m.d }

// String renders the value with exactly Scale fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// MarshalText renders the value as its fixed-scale string, so JSON, TOML and
// YAML all carry the exact digits.
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalJSON always quotes the value to avoid float conversion by clients.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*m = Zero
		return nil
	}
	return m.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer; values are stored as TEXT.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner. Stored values are trusted and are not
// rounded to Precision.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Zero
		return nil
	case string:
		return m.scanText(v)
	case []byte:
		return m.scanText(string(v))
	case int64:
		*m = FromInt(v)
		return nil
	case float64:
		*m = normalize(decimal.NewFromFloat(v))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
}

func (m *Money) scanText(s string) error {
	v, err := ParseExact(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
