package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlcoholContent(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantPct *float64
		wantPrf *float64
	}{
		{"abbreviated alc vol", "45% Alc./Vol.", f(45), nil},
		{"alc vol no periods", "45% alc/vol", f(45), nil},
		{"abv", "13.5% ABV", f(13.5), nil},
		{"spelled out", "12% Alcohol by Volume", f(12), nil},
		{"percentage and proof", "45% Alc./Vol. (90 Proof)", f(45), f(90)},
		{"proof only", "90 PROOF", nil, f(90)},
		{"bare percentage not recognized", "45%", nil, nil},
		{"no numbers", "bottled in bond", nil, nil},
		{"empty", "", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac := ParseAlcoholContent(tt.in)
			assertFloatPtr(t, tt.wantPct, ac.Percentage)
			assertFloatPtr(t, tt.wantPrf, ac.Proof)
		})
	}
}

func TestParseNetContents(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantValue float64
		wantUnit  string
	}{
		{"milliliters", "750 mL", 750, UnitMilliliters},
		{"milliliters spelled out", "355 milliliters", 355, UnitMilliliters},
		{"liters converted", "1.75 L", 1750, UnitMilliliters},
		{"liters spelled out", "1 liter", 1000, UnitMilliliters},
		{"fluid ounces", "12 FL OZ", 12, UnitFluidOunces},
		{"fluid ounces with periods", "12 fl. oz.", 12, UnitFluidOunces},
		{"fluid ounces spelled out", "25.4 fluid ounces", 25.4, UnitFluidOunces},
		{"metric wins when both present", "750 mL (25.4 FL OZ)", 750, UnitMilliliters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nc := ParseNetContents(tt.in)
			require.NotNil(t, nc)
			assert.InDelta(t, tt.wantValue, nc.Value, 1e-9)
			assert.Equal(t, tt.wantUnit, nc.Unit)
		})
	}
}

func TestParseNetContents_NoVolume(t *testing.T) {
	for _, in := range []string{"", "contents under pressure", "dozen bottles"} {
		assert.Nil(t, ParseNetContents(in), "input %q", in)
	}
}

func TestNetContents_Milliliters(t *testing.T) {
	metric := &NetContents{Value: 750, Unit: UnitMilliliters}
	assert.InDelta(t, 750, metric.Milliliters(), 1e-9)

	imperial := &NetContents{Value: 12, Unit: UnitFluidOunces}
	assert.InDelta(t, 12*FlOzToMl, imperial.Milliliters(), 1e-9)
}

func f(v float64) *float64 { return &v }

func assertFloatPtr(t *testing.T, want, got *float64) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.InDelta(t, *want, *got, 1e-9)
}
