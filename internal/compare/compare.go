// Package compare implements the per-field comparators that decide whether
// a declared application value matches what was read off the label. Each
// field family is an explicit Kind carrying its own comparison strategy;
// there is no runtime string dispatch.
package compare

import (
	"fmt"
	"math"

	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/parse"
	"github.com/sells-group/labelproof/internal/textutil"
	"github.com/sells-group/labelproof/internal/tolerance"
)

// Kind selects the comparison strategy for a field.
type Kind int

const (
	KindBrand Kind = iota
	KindAlcohol
	KindNetContents
	KindGenericString
	KindExactString
)

// Brand name similarity bands. The medium band is deliberately asymmetric:
// it is neither a clean match nor a clean rejection, and routes to human
// review instead of a flagged issue.
const (
	brandMatchBand  = 0.90
	BrandReviewBand = 0.70
)

// fallbackThreshold is the raw-similarity threshold used when numeric
// parsing fails on either side of an alcohol or net contents comparison.
const fallbackThreshold = 0.9

// Result is one comparator's verdict.
type Result struct {
	Matches    bool
	Confidence float64
	Notes      string

	// ReviewReason, when set, asks the decision engine to route this field
	// to human review rather than record a hard flagged issue.
	ReviewReason string

	// Advisory carries a non-blocking observation such as a non-standard
	// container size. Never a cause for mismatch.
	Advisory string
}

// Field compares an application value against its extracted counterpart
// using the strategy for kind. An empty application value short-circuits to
// a match (nothing was asserted); a populated application value with no
// extracted counterpart short-circuits to a mismatch.
func Field(kind Kind, app string, ext *string, bt model.BeverageType, threshold float64) Result {
	if app == "" {
		return Result{Matches: true, Confidence: 1.0, Notes: "not specified in application"}
	}
	if ext == nil || *ext == "" {
		return Result{Matches: false, Confidence: 0.0, Notes: "not found on label"}
	}

	switch kind {
	case KindBrand:
		return Brand(app, *ext)
	case KindAlcohol:
		return Alcohol(app, *ext, bt)
	case KindNetContents:
		return NetContents(app, *ext, bt)
	case KindExactString:
		return ExactString(app, *ext)
	default:
		return GenericString(app, *ext, threshold)
	}
}

// Brand compares brand names: semantic equivalence first, then banded
// edit-distance similarity.
func Brand(app, ext string) Result {
	if textutil.SemanticallyEqual(app, ext) {
		return Result{Matches: true, Confidence: 1.0}
	}

	sim := textutil.Similarity(app, ext)
	switch {
	case sim >= 1.0:
		return Result{Matches: true, Confidence: 1.0}
	case sim > brandMatchBand:
		return Result{
			Matches:    true,
			Confidence: sim,
			Notes:      fmt.Sprintf("minor difference from label (similarity %.2f)", sim),
		}
	case sim >= BrandReviewBand:
		return Result{
			Matches:      false,
			Confidence:   sim,
			Notes:        fmt.Sprintf("possible brand name variation (similarity %.2f)", sim),
			ReviewReason: fmt.Sprintf("Brand name %q differs from label %q; requires review", app, ext),
		}
	default:
		return Result{
			Matches:    false,
			Confidence: sim,
			Notes:      fmt.Sprintf("brand name mismatch (similarity %.2f)", sim),
		}
	}
}

// Alcohol compares alcohol content statements. Percentage comparison is
// tolerance-aware per the regulatory breakpoints; proof comparison allows a
// one-point rounding difference; unparseable statements fall back to raw
// string similarity.
func Alcohol(app, ext string, bt model.BeverageType) Result {
	appAC := parse.ParseAlcoholContent(app)
	extAC := parse.ParseAlcoholContent(ext)

	if appAC.Percentage != nil && extAC.Percentage != nil {
		declared, measured := *appAC.Percentage, *extAC.Percentage
		diff := math.Abs(declared - measured)
		if diff == 0 {
			return Result{Matches: true, Confidence: 1.0}
		}

		tol := tolerance.AlcoholTolerance(bt, declared)
		if diff <= tol {
			// Shallow confidence penalty: tolerance-compliant values should
			// not look barely acceptable.
			res := Result{Matches: true, Confidence: 1.0 - (diff/tol)*0.1}
			if diff > 0.05 {
				res.Notes = fmt.Sprintf("%.2f%% difference within ±%.2f%% tolerance", diff, tol)
			}
			return res
		}
		return Result{
			Matches:    false,
			Confidence: 0.0,
			Notes:      fmt.Sprintf("declared %.1f%% vs %.1f%% on label exceeds ±%.2f%% tolerance", declared, measured, tol),
		}
	}

	if appAC.Proof != nil && extAC.Proof != nil {
		diff := math.Abs(*appAC.Proof - *extAC.Proof)
		switch {
		case diff == 0:
			return Result{Matches: true, Confidence: 1.0}
		case diff <= 1:
			return Result{Matches: true, Confidence: 0.95, Notes: "proof differs within rounding allowance"}
		default:
			return Result{
				Matches:    false,
				Confidence: 0.0,
				Notes:      fmt.Sprintf("declared %.0f proof vs %.0f proof on label", *appAC.Proof, *extAC.Proof),
			}
		}
	}

	return similarityFallback(app, ext)
}

// NetContents compares net contents statements, converting units when the
// two sides disagree on measurement system.
func NetContents(app, ext string, bt model.BeverageType) Result {
	appNC := parse.ParseNetContents(app)
	extNC := parse.ParseNetContents(ext)
	if appNC == nil || extNC == nil {
		return similarityFallback(app, ext)
	}

	if appNC.Unit == extNC.Unit {
		if appNC.Value == extNC.Value {
			res := Result{Matches: true, Confidence: 1.0}
			if !tolerance.IsStandardFillSize(bt, appNC.Milliliters()) {
				res.Advisory = fmt.Sprintf("Non-standard container size: %.0f %s", appNC.Value, appNC.Unit)
			}
			return res
		}
		rel := math.Abs(appNC.Value-extNC.Value) / appNC.Value
		if rel <= 0.01 {
			return Result{Matches: true, Confidence: 0.95, Notes: "minor volume difference within 1%"}
		}
		return Result{
			Matches:    false,
			Confidence: 0.0,
			Notes:      fmt.Sprintf("declared %.0f %s vs %.0f %s on label", appNC.Value, appNC.Unit, extNC.Value, extNC.Unit),
		}
	}

	appMl, extMl := appNC.Milliliters(), extNC.Milliliters()
	if math.Abs(appMl-extMl) <= 5 {
		return Result{Matches: true, Confidence: 0.90, Notes: "matched after unit conversion"}
	}
	return Result{
		Matches:    false,
		Confidence: 0.0,
		Notes:      fmt.Sprintf("declared %.0f mL vs %.0f mL on label after unit conversion", appMl, extMl),
	}
}

// GenericString compares free-text fields by similarity against a
// field-specific threshold.
func GenericString(app, ext string, threshold float64) Result {
	sim := textutil.Similarity(app, ext)
	if sim >= threshold {
		return Result{Matches: true, Confidence: sim}
	}
	return Result{
		Matches:    false,
		Confidence: sim,
		Notes:      fmt.Sprintf("differs from label (similarity %.2f)", sim),
	}
}

// ExactString compares fields that permit no fuzz at all, e.g. vintage year.
func ExactString(app, ext string) Result {
	if app == ext {
		return Result{Matches: true, Confidence: 1.0}
	}
	return Result{
		Matches:    false,
		Confidence: 0.0,
		Notes:      fmt.Sprintf("declared %q vs %q on label", app, ext),
	}
}

// similarityFallback compares raw strings when structured parsing failed on
// either side.
func similarityFallback(app, ext string) Result {
	sim := textutil.Similarity(app, ext)
	if sim >= fallbackThreshold {
		return Result{Matches: true, Confidence: sim, Notes: "compared as text; could not parse value"}
	}
	return Result{
		Matches:    false,
		Confidence: sim,
		Notes:      "could not parse value; text differs from label",
	}
}
