// Package parse extracts structured numeric meaning from free-text label
// fields: alcohol content statements and net contents statements.
package parse

import (
	"regexp"
	"strconv"
)

// Volume units returned by ParseNetContents.
const (
	UnitMilliliters = "ml"
	UnitFluidOunces = "fl oz"
)

// FlOzToMl is the fluid ounce to milliliter conversion factor. Applied only
// at comparison time; imperial parses stay in fluid ounces.
const FlOzToMl = 29.5735

// AlcoholContent is the structured reading of an alcohol content statement.
// Either or both measures may be absent.
type AlcoholContent struct {
	Percentage *float64
	Proof      *float64
}

// NetContents is the structured reading of a net contents statement.
type NetContents struct {
	Value float64
	Unit  string
}

// A bare percentage with no qualifier is deliberately not recognized: the
// regulatory format requires "Alc./Vol.", "ABV", or "Alcohol by Volume"
// after the number.
var (
	abvPattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s*(?:alc\s*\.?\s*/?\s*vol\s*\.?|abv\b|alcohol\s+by\s+volume)`)
	proofPattern = regexp.MustCompile(`(?i)(\d+)\s*proof\b`)

	metricPattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(ml|milliliters?|millilitres?|l|liters?|litres?)\b`)
	imperialPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(fl\s*\.?\s*oz\s*\.?|fluid\s+ounces?|oz\b\.?|ounces?)`)

	literUnit = regexp.MustCompile(`(?i)^(l|liters?|litres?)$`)
)

// ParseAlcoholContent extracts the ABV percentage and/or proof value from a
// free-text alcohol statement, e.g. "45% Alc./Vol. (90 Proof)".
func ParseAlcoholContent(text string) AlcoholContent {
	var ac AlcoholContent

	if m := abvPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			ac.Percentage = &v
		}
	}
	if m := proofPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			ac.Proof = &v
		}
	}

	return ac
}

// ParseNetContents extracts a volume and unit from a free-text net contents
// statement. Liter-family values are converted to milliliters; imperial
// values are returned in fluid ounces unchanged. Returns nil when no
// recognizable volume is present.
func ParseNetContents(text string) *NetContents {
	if m := metricPattern.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			if literUnit.MatchString(m[2]) {
				v *= 1000
			}
			return &NetContents{Value: v, Unit: UnitMilliliters}
		}
	}
	if m := imperialPattern.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return &NetContents{Value: v, Unit: UnitFluidOunces}
		}
	}
	return nil
}

// Milliliters returns the volume expressed in milliliters, converting from
// fluid ounces when necessary.
func (n *NetContents) Milliliters() float64 {
	if n.Unit == UnitFluidOunces {
		return n.Value * FlOzToMl
	}
	return n.Value
}
