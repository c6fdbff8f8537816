package verifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/labelproof/internal/compare"
	"github.com/sells-group/labelproof/internal/config"
	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/warning"
)

// Verifier runs the verification decision procedure. It is stateless apart
// from its threshold configuration and safe for concurrent use.
type Verifier struct {
	cfg config.VerifierConfig
}

// New creates a Verifier with the given thresholds.
func New(cfg config.VerifierConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// NewDefault creates a Verifier with the shipped regulatory defaults.
func NewDefault() *Verifier {
	return New(DefaultVerifierConfig())
}

// fieldSpec binds one field label to its comparison strategy and the pair
// of values to compare.
type fieldSpec struct {
	label     string
	kind      compare.Kind
	threshold float64
	appValue  string
	extValue  *string
}

// fieldSpecs lists the comparators applicable to this application. Country
// of origin is compared only when declared; vintage year and appellation
// only for wine.
func (v *Verifier) fieldSpecs(app *model.ApplicationData, ext *model.ExtractedLabelData) []fieldSpec {
	specs := []fieldSpec{
		{label: "brand name", kind: compare.KindBrand, appValue: app.BrandName, extValue: ext.BrandName},
		{label: "class/type", kind: compare.KindGenericString, threshold: v.cfg.ClassTypeThreshold, appValue: app.ClassType, extValue: ext.ClassType},
		{label: "alcohol content", kind: compare.KindAlcohol, appValue: app.AlcoholContent, extValue: ext.AlcoholContent},
		{label: "net contents", kind: compare.KindNetContents, appValue: app.NetContents, extValue: ext.NetContents},
		{label: "producer name", kind: compare.KindGenericString, threshold: v.cfg.ProducerThreshold, appValue: app.ProducerName, extValue: ext.ProducerName},
	}
	if app.CountryOfOrigin != "" {
		specs = append(specs, fieldSpec{
			label: "country of origin", kind: compare.KindGenericString,
			threshold: v.cfg.CountryThreshold, appValue: app.CountryOfOrigin, extValue: ext.CountryOfOrigin,
		})
	}
	if app.BeverageType == model.BeverageWine {
		specs = append(specs,
			fieldSpec{label: "vintage year", kind: compare.KindExactString, appValue: app.VintageYear, extValue: ext.VintageYear},
			fieldSpec{label: "appellation", kind: compare.KindGenericString, threshold: v.cfg.AppellationThreshold, appValue: app.Appellation, extValue: ext.Appellation},
		)
	}
	return specs
}

// Verify compares one application against one label extraction and returns
// the verdict. Pure apart from the generated id and timestamp; elapsed is
// the caller-measured processing time, classified against the target.
func (v *Verifier) Verify(app *model.ApplicationData, ext *model.ExtractedLabelData, elapsed time.Duration) *model.VerificationResult {
	var (
		fields        []model.FieldVerification
		flaggedIssues []string
		reviewReasons []string
		matched       int
	)

	brandIdx, alcoholIdx := -1, -1
	for _, spec := range v.fieldSpecs(app, ext) {
		res := compare.Field(spec.kind, spec.appValue, spec.extValue, app.BeverageType, spec.threshold)

		fields = append(fields, model.FieldVerification{
			Field:            spec.label,
			ApplicationValue: spec.appValue,
			ExtractedValue:   spec.extValue,
			Matches:          res.Matches,
			Confidence:       res.Confidence,
			Notes:            res.Notes,
		})
		switch spec.kind {
		case compare.KindBrand:
			brandIdx = len(fields) - 1
		case compare.KindAlcohol:
			alcoholIdx = len(fields) - 1
		}

		if res.Matches {
			matched++
		}
		switch {
		case res.ReviewReason != "":
			// Medium-band brand results route to review, not to the hard
			// issue list; "no match" does not always mean "flagged issue".
			reviewReasons = append(reviewReasons, res.ReviewReason)
		case !res.Matches:
			note := res.Notes
			if note == "" {
				note = "does not match label"
			}
			flaggedIssues = append(flaggedIssues, fmt.Sprintf("%s: %s", spec.label, note))
		}
		if res.Advisory != "" {
			reviewReasons = append(reviewReasons, res.Advisory)
		}
	}

	var wv warning.Validation
	if ext.WarningFormat != nil {
		wv = warning.ValidateWithFormat(ext.GovernmentWarning, ext.WarningFormat)
	} else {
		wv = warning.Validate(ext.GovernmentWarning)
	}
	if !wv.Present {
		flaggedIssues = append(flaggedIssues, "government warning statement missing from label")
	} else if !wv.Correct {
		flaggedIssues = append(flaggedIssues, wv.Issues...)
	}

	var imageScore *float64
	var imageIssues []string
	if iq := ext.ImageQuality; iq != nil {
		score := iq.Score
		imageScore = &score
		imageIssues = iq.Issues
		switch {
		case iq.RecommendResubmit:
			reviewReasons = append(reviewReasons,
				fmt.Sprintf("Image quality problems (%s); resubmission recommended", strings.Join(iq.Issues, ", ")))
		case score < v.cfg.ImageQualityFloor && len(iq.Issues) > 0:
			reviewReasons = append(reviewReasons,
				fmt.Sprintf("Image quality is marginal (%.2f): %s", score, strings.Join(iq.Issues, ", ")))
		}
	}

	total := len(fields)
	var confSum float64
	for _, f := range fields {
		confSum += f.Confidence
	}
	avgFieldConfidence := 0.0
	if total > 0 {
		avgFieldConfidence = confSum / float64(total)
	}
	overall := math.Min(avgFieldConfidence, ext.Confidence)

	status := v.classify(fields, brandIdx, alcoholIdx, wv, matched, total, overall, &reviewReasons)

	result := &model.VerificationResult{
		ID:                uuid.New().String(),
		Timestamp:         time.Now().UTC(),
		Status:            status,
		OverallConfidence: overall,
		Fields:            fields,
		Warning: model.WarningVerification{
			Present: wv.Present,
			Correct: wv.Correct,
			Notes:   wv.Notes,
			Issues:  wv.Issues,
		},
		MatchedFields:       matched,
		TotalFields:         total,
		FlaggedIssues:       flaggedIssues,
		RequiresHumanReview: len(reviewReasons) > 0,
		ReviewReasons:       reviewReasons,
		ImageQualityScore:   imageScore,
		ImageQualityIssues:  imageIssues,
		ProcessingTimeMs:    elapsed.Milliseconds(),
		MeetsTargetTime:     elapsed.Milliseconds() <= v.cfg.TargetTimeMs,
	}

	zap.L().Debug("verifier: verdict",
		zap.String("id", result.ID),
		zap.String("status", string(status)),
		zap.Float64("overall_confidence", overall),
		zap.Int("matched_fields", matched),
		zap.Int("total_fields", total),
	)

	return result
}

// classify applies the ordered decision policy. Approval is reachable only
// through the narrowest branch; every ambiguous path prefers needs_review
// over rejected, and rejected is reserved for unambiguous failures.
func (v *Verifier) classify(
	fields []model.FieldVerification,
	brandIdx, alcoholIdx int,
	wv warning.Validation,
	matched, total int,
	overall float64,
	reviewReasons *[]string,
) model.VerificationStatus {
	if v.criticalFailure(fields, brandIdx, alcoholIdx, wv) {
		if overall >= v.cfg.MediumConfidence && len(*reviewReasons) > 0 {
			if !anyContains(*reviewReasons, "Critical") {
				*reviewReasons = append(*reviewReasons, "Critical fields may have issues; manual review required")
			}
			return model.StatusNeedsReview
		}
		return model.StatusRejected
	}

	if matched == total && wv.Correct && overall >= v.cfg.AutoApproveConfidence && len(*reviewReasons) == 0 {
		return model.StatusApproved
	}

	if overall < v.cfg.LowConfidence || len(*reviewReasons) > 0 {
		if overall < v.cfg.LowConfidence && !anyContainsFold(*reviewReasons, "confidence") {
			*reviewReasons = append(*reviewReasons, fmt.Sprintf("Low overall confidence (%.2f)", overall))
		}
		return model.StatusNeedsReview
	}

	if float64(matched) >= v.cfg.MatchedFieldRatio*float64(total) && wv.Correct {
		*reviewReasons = append(*reviewReasons, "Some fields require human verification")
		return model.StatusNeedsReview
	}

	return model.StatusRejected
}

// criticalFailure evaluates the predicates that can by themselves force
// rejection or review: missing warning, confidently wrong warning, a brand
// mismatch below the review band, or any alcohol content mismatch.
func (v *Verifier) criticalFailure(fields []model.FieldVerification, brandIdx, alcoholIdx int, wv warning.Validation) bool {
	if !wv.Present {
		return true
	}
	if !wv.Correct && wv.Confidence < v.cfg.WarningConfidence {
		return true
	}
	if brandIdx >= 0 {
		brand := fields[brandIdx]
		if !brand.Matches && brand.Confidence < compare.BrandReviewBand {
			return true
		}
	}
	if alcoholIdx >= 0 && !fields[alcoholIdx].Matches {
		return true
	}
	return false
}

func anyContains(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func anyContainsFold(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(strings.ToLower(s), strings.ToLower(substr)) {
			return true
		}
	}
	return false
}
