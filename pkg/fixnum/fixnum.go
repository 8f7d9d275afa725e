package fixnum

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Fixed is the ledger's fixed-point number: non-negative, 64-bit integer
// range, FracDigits fractional digits. Every operation is checked and
// truncates at the same point, so a sequence of operations yields the
// same bits on every run and every machine. Do not use float64 anywhere
// near ledger state.

// FracDigits is one digit past the 2^-64 resolution of the original
// index encoding (2^-64 ≈ 5.4e-20).
const FracDigits = 20

var (
	// ErrOverflow the result does not fit in the 64-bit integer range
	ErrOverflow = errors.New("fixnum: overflow")
	// ErrNegative the result would be negative
	ErrNegative = errors.New("fixnum: negative result")
	// ErrDivisionByZero division by zero
	ErrDivisionByZero = errors.New("fixnum: division by zero")
)

var (
	limit = decimal.RequireFromString("18446744073709551616") // 2^64
	one   = decimal.New(1, 0)
)

// Fixed zero value is 0.
type Fixed struct {
	d decimal.Decimal
}

// Zero 0
var Zero = Fixed{}

// One 1
var One = Fixed{d: one}

// Max is the largest representable value. Collateral ratio of a
// debt-free account evaluates to Max rather than dividing by zero.
var Max = Fixed{d: limit.Sub(decimal.New(1, -FracDigits))}

// New parses a non-negative decimal string.
func New(v string) (Fixed, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return Zero, fmt.Errorf("fixnum: %w", err)
	}

	return FromDecimal(d)
}

// MustNew parses v and panics on failure. For constants only.
func MustNew(v string) Fixed {
	f, err := New(v)
	if err != nil {
		panic(err)
	}

	return f
}

// FromUint converts a native amount.
func FromUint(v uint64) Fixed {
	return Fixed{d: decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)}
}

// FromDecimal checks range and truncates to FracDigits.
func FromDecimal(d decimal.Decimal) (Fixed, error) {
	d = d.Truncate(FracDigits)
	if d.IsNegative() {
		return Zero, ErrNegative
	}
	if d.Cmp(limit) >= 0 {
		return Zero, ErrOverflow
	}

	return Fixed{d: d}, nil
}

// Add checked addition.
func (f Fixed) Add(o Fixed) (Fixed, error) {
	return FromDecimal(f.d.Add(o.d))
}

// Sub checked subtraction; going below zero is an error, never a wrap.
func (f Fixed) Sub(o Fixed) (Fixed, error) {
	return FromDecimal(f.d.Sub(o.d))
}

// Mul checked multiplication, truncated to FracDigits.
func (f Fixed) Mul(o Fixed) (Fixed, error) {
	return FromDecimal(f.d.Mul(o.d))
}

// Div checked division, truncated to FracDigits.
func (f Fixed) Div(o Fixed) (Fixed, error) {
	if o.d.IsZero() {
		return Zero, ErrDivisionByZero
	}

	// one extra digit before the final truncation keeps the result
	// independent of decimal's global DivisionPrecision
	return FromDecimal(f.d.DivRound(o.d, FracDigits+1).Truncate(FracDigits))
}

// Cmp -1, 0, 1
func (f Fixed) Cmp(o Fixed) int { return f.d.Cmp(o.d) }

// LessThan f < o
func (f Fixed) LessThan(o Fixed) bool { return f.d.Cmp(o.d) < 0 }

// GreaterThan f > o
func (f Fixed) GreaterThan(o Fixed) bool { return f.d.Cmp(o.d) > 0 }

// GreaterThanOrEqual f >= o
func (f Fixed) GreaterThanOrEqual(o Fixed) bool { return f.d.Cmp(o.d) >= 0 }

// Equal f == o
func (f Fixed) Equal(o Fixed) bool { return f.d.Equal(o.d) }

// IsZero f == 0
func (f Fixed) IsZero() bool { return f.d.IsZero() }

// IsPositive f > 0
func (f Fixed) IsPositive() bool { return f.d.IsPositive() }

// Floor native amount rounded toward zero.
func (f Fixed) Floor() uint64 {
	return f.d.Floor().BigInt().Uint64()
}

// Ceil native amount rounded away from zero.
func (f Fixed) Ceil() uint64 {
	return f.d.Ceil().BigInt().Uint64()
}

// Decimal returns the underlying decimal.
func (f Fixed) Decimal() decimal.Decimal { return f.d }

func (f Fixed) String() string { return f.d.String() }

// MarshalJSON encodes as a decimal string.
func (f Fixed) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.d.String() + `"`), nil
}

// UnmarshalJSON decodes a decimal string with range checks.
func (f *Fixed) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("fixnum: %w", err)
	}

	v, err := FromDecimal(d)
	if err != nil {
		return err
	}

	*f = v
	return nil
}
