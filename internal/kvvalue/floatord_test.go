package kvvalue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloatOrdLess(t *testing.T) {
	require.True(t, FloatOrd(1).Less(FloatOrd(2)))
	require.False(t, FloatOrd(2).Less(FloatOrd(1)))
	require.True(t, FloatOrd(math.Inf(-1)).Less(FloatOrd(0)))
	require.True(t, FloatOrd(0).Less(FloatOrd(math.Inf(1))))
}

func TestFloatOrdCheckedAdd(t *testing.T) {
	f := FloatOrd(10)
	sum, ok := f.CheckedAdd(5)
	require.True(t, ok)
	require.Equal(t, FloatOrd(15), sum)

	_, ok = FloatOrd(math.MaxFloat64).CheckedAdd(math.MaxFloat64)
	require.False(t, ok, "overflow to +Inf must be rejected")
}
