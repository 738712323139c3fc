package vat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexbill/lexbill/internal/shared"
)

func TestComputeRateTable(t *testing.T) {
	cases := []struct {
		name     string
		subtotal float64
		vt       Type
		want     float64
	}{
		{"none is zero", 250, TypeNone, 0},
		{"exempt is zero", 250, TypeExempt, 0},
		{"zero rated is zero", 250, TypeZero, 0},
		{"ten percent", 250, TypeTen, 25},
		{"twenty percent", 250, TypeTwenty, 50},
		{"twenty percent on empty subtotal", 0, TypeTwenty, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Compute(tc.subtotal, tc.vt)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestComputeRoundsHalfUp(t *testing.T) {
	// 10% of 100.25 = 10.025, half-up to 10.03
	got, err := Compute(100.25, TypeTen)
	require.NoError(t, err)
	require.Equal(t, 10.03, got)

	// 20% of 33.33 = 6.666, half-up to 6.67
	got, err = Compute(33.33, TypeTwenty)
	require.NoError(t, err)
	require.Equal(t, 6.67, got)
}

func TestParseRejectsUnknownCategory(t *testing.T) {
	for _, raw := range []string{"vat22", "vat18", "", "VAT20"} {
		_, err := Parse(raw)
		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr), "expected validation error for %q", raw)
		require.Equal(t, "vat_type", verr.Field)
	}
}

func TestParseAcceptsKnownCategories(t *testing.T) {
	for _, raw := range []string{"none", "exempt", "vat0", "vat10", "vat20"} {
		vt, err := Parse(raw)
		require.NoError(t, err)
		require.True(t, vt.Valid())
	}
}

func TestComputeRejectsUnknownCategory(t *testing.T) {
	_, err := Compute(100, Type("vat22"))
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
}
