// Package tolerance holds the TTB regulatory tolerance tables: acceptable
// alcohol content deviation per beverage category and the standard
// container fill sizes. Pure constant data; exact breakpoints, never
// smoothed or interpolated.
package tolerance

import (
	"math"

	"github.com/sells-group/labelproof/internal/model"
)

// fillSizeSlackMl is how far a measured volume may sit from a standard fill
// size and still count as that size.
const fillSizeSlackMl = 5.0

// standardFillsMl lists the legally recognized container sizes per category.
var standardFillsMl = map[model.BeverageType][]float64{
	model.BeverageDistilledSpirits: {50, 100, 200, 375, 750, 1000, 1750},
	model.BeverageWine:             {187, 375, 500, 750, 1000, 1500, 3000},
	model.BeverageBeer:             {355, 473, 650, 946},
}

// AlcoholTolerance returns the regulator-defined acceptable ABV deviation
// for the given beverage category and measured percentage. Spirits tighten
// above 100 proof; wine tightens above 14 percent.
func AlcoholTolerance(bt model.BeverageType, abvPercent float64) float64 {
	switch bt {
	case model.BeverageDistilledSpirits:
		if abvPercent <= 50 {
			return 0.3
		}
		return 0.15
	case model.BeverageWine:
		if abvPercent <= 14 {
			return 1.5
		}
		return 1.0
	case model.BeverageBeer:
		return 0.3
	default:
		return 0.3
	}
}

// IsStandardFillSize reports whether volumeMl is within 5 mL of a standard
// fill size for the category. Advisory only; never fails a match.
func IsStandardFillSize(bt model.BeverageType, volumeMl float64) bool {
	for _, std := range standardFillsMl[bt] {
		if math.Abs(volumeMl-std) <= fillSizeSlackMl {
			return true
		}
	}
	return false
}
