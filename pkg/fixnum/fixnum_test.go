package fixnum

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedArithmetic(t *testing.T) {
	a := MustNew("1.5")
	b := MustNew("0.5")

	sum, err := a.Add(b)
	require.Nil(t, err)
	assert.Equal(t, "2", sum.String())

	diff, err := a.Sub(b)
	require.Nil(t, err)
	assert.Equal(t, "1", diff.String())

	prod, err := a.Mul(b)
	require.Nil(t, err)
	assert.Equal(t, "0.75", prod.String())

	quot, err := a.Div(b)
	require.Nil(t, err)
	assert.Equal(t, "3", quot.String())
}

func TestSubNegative(t *testing.T) {
	_, err := One.Sub(MustNew("1.00000000000000000001"))
	assert.Equal(t, ErrNegative, err)
}

func TestDivisionByZero(t *testing.T) {
	_, err := One.Div(Zero)
	assert.Equal(t, ErrDivisionByZero, err)
}

func TestOverflow(t *testing.T) {
	_, err := Max.Add(One)
	assert.Equal(t, ErrOverflow, err)

	_, err = Max.Mul(MustNew("2"))
	assert.Equal(t, ErrOverflow, err)

	_, err = New("18446744073709551616")
	assert.Equal(t, ErrOverflow, err)
}

func TestDeterministicTruncation(t *testing.T) {
	// result must not depend on decimal's global division precision
	saved := decimal.DivisionPrecision
	defer func() { decimal.DivisionPrecision = saved }()

	want := ""
	for _, p := range []int{4, 16, 40} {
		decimal.DivisionPrecision = p

		q, err := One.Div(MustNew("3"))
		require.Nil(t, err)

		if want == "" {
			want = q.String()
		}
		assert.Equal(t, want, q.String())
	}
}

func TestFloorCeil(t *testing.T) {
	f := MustNew("105.9")
	assert.Equal(t, uint64(105), f.Floor())
	assert.Equal(t, uint64(106), f.Ceil())

	assert.Equal(t, uint64(7), MustNew("7").Floor())
	assert.Equal(t, uint64(7), MustNew("7").Ceil())
}

func TestFromUintLarge(t *testing.T) {
	v := uint64(18446744073709551615)
	f := FromUint(v)
	assert.Equal(t, v, f.Floor())
}

func TestNegativeInput(t *testing.T) {
	_, err := New("-1")
	assert.Equal(t, ErrNegative, err)
}
