package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundMoneyHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.006, 1.01},
		{1.004, 1.0},
		{2.5, 2.5},
		{9.999, 10.0},
		{100.25 * 0.1, 10.03},
		{3 * 3.333, 10.0},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.want, RoundMoney(tc.in), 1e-9, "RoundMoney(%v)", tc.in)
	}
}

func TestRoundHoursTenthGranularity(t *testing.T) {
	require.InDelta(t, 1.5, RoundHours(1.46), 1e-9)
	require.InDelta(t, 1.4, RoundHours(1.44), 1e-9)
	require.InDelta(t, 0.1, RoundHours(0.05), 1e-9)
}

func TestMoneyString(t *testing.T) {
	require.Equal(t, "0.00", MoneyString(0))
	require.Equal(t, "10.00", MoneyString(9.999))
	require.Equal(t, "1234.50", MoneyString(1234.5))
}

func TestHoursString(t *testing.T) {
	require.Equal(t, "7.5", HoursString(7.5))
	require.Equal(t, "0.1", HoursString(0.05))
	require.Equal(t, "8.0", HoursString(8))
}
