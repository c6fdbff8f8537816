package verifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/warning"
)

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }

// spiritApp returns a complete distilled spirits application.
func spiritApp() *model.ApplicationData {
	return &model.ApplicationData{
		BrandName:      "OLD TOM DISTILLERY",
		ClassType:      "Kentucky Straight Bourbon Whiskey",
		BeverageType:   model.BeverageDistilledSpirits,
		AlcoholContent: "45% Alc./Vol.",
		NetContents:    "750 mL",
		ProducerName:   "Old Tom Distillery Co.",
	}
}

// matchingExtraction returns label data that agrees with spiritApp on every
// field, with the mandated warning statement verbatim.
func matchingExtraction() *model.ExtractedLabelData {
	return &model.ExtractedLabelData{
		BrandName:         strPtr("OLD TOM DISTILLERY"),
		ClassType:         strPtr("Kentucky Straight Bourbon Whiskey"),
		AlcoholContent:    strPtr("45% Alc./Vol."),
		NetContents:       strPtr("750 mL"),
		ProducerName:      strPtr("Old Tom Distillery Co."),
		GovernmentWarning: strPtr(warning.CanonicalText),
		Confidence:        0.95,
	}
}

func TestVerify_ExactMatchApproves(t *testing.T) {
	result := NewDefault().Verify(spiritApp(), matchingExtraction(), time.Second)

	assert.Equal(t, model.StatusApproved, result.Status)
	assert.Equal(t, result.TotalFields, result.MatchedFields)
	assert.True(t, result.Warning.Present)
	assert.True(t, result.Warning.Correct)
	assert.False(t, result.RequiresHumanReview)
	assert.Empty(t, result.FlaggedIssues)
	assert.NotEmpty(t, result.ID)
	assert.True(t, result.MeetsTargetTime)
}

func TestVerify_AlcoholWithinToleranceApproves(t *testing.T) {
	ext := matchingExtraction()
	ext.AlcoholContent = strPtr("45.2% Alc./Vol.")

	result := NewDefault().Verify(spiritApp(), ext, time.Second)

	assert.Equal(t, model.StatusApproved, result.Status)
	assert.Equal(t, result.TotalFields, result.MatchedFields)
}

func TestVerify_BrandNearMissNeedsReview(t *testing.T) {
	ext := matchingExtraction()
	ext.BrandName = strPtr("OLD TOM'S DISTILLERY")

	result := NewDefault().Verify(spiritApp(), ext, time.Second)

	assert.Equal(t, model.StatusNeedsReview, result.Status)
	assert.True(t, result.RequiresHumanReview)
	assert.NotEmpty(t, result.ReviewReasons)
	assert.Contains(t, strings.Join(result.ReviewReasons, "; "), "requires review")

	var brandField *model.FieldVerification
	for i := range result.Fields {
		if result.Fields[i].Field == "brand name" {
			brandField = &result.Fields[i]
		}
	}
	require.NotNil(t, brandField)
	assert.False(t, brandField.Matches)
	assert.InDelta(t, 0.90, brandField.Confidence, 1e-9)
}

func TestVerify_BrandGrossMismatchRejects(t *testing.T) {
	ext := matchingExtraction()
	ext.BrandName = strPtr("COMPLETELY DIFFERENT BRAND")

	result := NewDefault().Verify(spiritApp(), ext, time.Second)

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.NotEmpty(t, result.FlaggedIssues)
}

func TestVerify_MissingWarningRejects(t *testing.T) {
	ext := matchingExtraction()
	ext.GovernmentWarning = nil

	result := NewDefault().Verify(spiritApp(), ext, time.Second)

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.False(t, result.Warning.Present)
	assert.Contains(t, result.FlaggedIssues, "government warning statement missing from label")
}

func TestVerify_AlcoholOutOfToleranceRejects(t *testing.T) {
	ext := matchingExtraction()
	ext.AlcoholContent = strPtr("47% Alc./Vol.")

	result := NewDefault().Verify(spiritApp(), ext, time.Second)

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Contains(t, strings.Join(result.FlaggedIssues, "; "), "alcohol content")
}

func TestVerify_LowExtractionConfidenceNeedsReview(t *testing.T) {
	ext := matchingExtraction()
	ext.Confidence = 0.5

	result := NewDefault().Verify(spiritApp(), ext, time.Second)

	assert.Equal(t, model.StatusNeedsReview, result.Status)
	assert.InDelta(t, 0.5, result.OverallConfidence, 1e-9)
	assert.Contains(t, strings.ToLower(strings.Join(result.ReviewReasons, "; ")), "confidence")
}

func TestVerify_NeverApprovesWithMismatch(t *testing.T) {
	mutations := []func(*model.ExtractedLabelData){
		func(e *model.ExtractedLabelData) { e.BrandName = strPtr("SOMETHING ELSE ENTIRELY") },
		func(e *model.ExtractedLabelData) { e.AlcoholContent = strPtr("47% Alc./Vol.") },
		func(e *model.ExtractedLabelData) { e.NetContents = strPtr("500 mL") },
		func(e *model.ExtractedLabelData) { e.GovernmentWarning = nil },
		func(e *model.ExtractedLabelData) {
			e.GovernmentWarning = strPtr("GOVERNMENT WARNING: drink responsibly")
		},
	}
	for i, mutate := range mutations {
		ext := matchingExtraction()
		mutate(ext)
		result := NewDefault().Verify(spiritApp(), ext, time.Second)
		assert.NotEqual(t, model.StatusApproved, result.Status, "mutation %d must not approve", i)
	}
}

func TestVerify_CrossUnitNetContentsMatches(t *testing.T) {
	app := &model.ApplicationData{
		BrandName:      "HOPS ROW",
		ClassType:      "India Pale Ale",
		BeverageType:   model.BeverageBeer,
		AlcoholContent: "6.5% ABV",
		NetContents:    "12 FL OZ",
		ProducerName:   "Hops Row Brewing",
	}
	ext := &model.ExtractedLabelData{
		BrandName:         strPtr("HOPS ROW"),
		ClassType:         strPtr("India Pale Ale"),
		AlcoholContent:    strPtr("6.5% ABV"),
		NetContents:       strPtr("355 mL"),
		ProducerName:      strPtr("Hops Row Brewing"),
		GovernmentWarning: strPtr(warning.CanonicalText),
		Confidence:        0.95,
	}

	result := NewDefault().Verify(app, ext, time.Second)

	assert.Equal(t, result.TotalFields, result.MatchedFields)
	for _, f := range result.Fields {
		if f.Field == "net contents" {
			assert.True(t, f.Matches)
			assert.InDelta(t, 0.90, f.Confidence, 1e-9)
		}
	}
}

func TestVerify_WineFields(t *testing.T) {
	app := &model.ApplicationData{
		BrandName:      "SILVER CREEK CELLARS",
		ClassType:      "Cabernet Sauvignon",
		BeverageType:   model.BeverageWine,
		AlcoholContent: "14.5% Alc./Vol.",
		NetContents:    "750 mL",
		ProducerName:   "Silver Creek Cellars LLC",
		VintageYear:    "2019",
		Appellation:    "Napa Valley",
	}
	ext := &model.ExtractedLabelData{
		BrandName:         strPtr("SILVER CREEK CELLARS"),
		ClassType:         strPtr("Cabernet Sauvignon"),
		AlcoholContent:    strPtr("14.5% Alc./Vol."),
		NetContents:       strPtr("750 mL"),
		ProducerName:      strPtr("Silver Creek Cellars LLC"),
		VintageYear:       strPtr("2020"),
		Appellation:       strPtr("Napa Valley"),
		GovernmentWarning: strPtr(warning.CanonicalText),
		Confidence:        0.95,
	}

	result := NewDefault().Verify(app, ext, time.Second)

	assert.Equal(t, 7, result.TotalFields, "wine adds vintage year and appellation")
	assert.Equal(t, 6, result.MatchedFields)
	assert.Equal(t, model.StatusNeedsReview, result.Status)
	assert.Contains(t, strings.Join(result.FlaggedIssues, "; "), "vintage year")
}

func TestVerify_CountryOfOriginOnlyWhenDeclared(t *testing.T) {
	app := spiritApp()
	ext := matchingExtraction()
	baseline := NewDefault().Verify(app, ext, time.Second)

	app.CountryOfOrigin = "Scotland"
	ext.CountryOfOrigin = strPtr("Scotland")
	withCountry := NewDefault().Verify(app, ext, time.Second)

	assert.Equal(t, baseline.TotalFields+1, withCountry.TotalFields)
	assert.Equal(t, model.StatusApproved, withCountry.Status)
}

func TestVerify_ImageQuality(t *testing.T) {
	t.Run("resubmission recommendation routes to review", func(t *testing.T) {
		ext := matchingExtraction()
		ext.ImageQuality = &model.ImageQuality{
			Score:             0.3,
			Issues:            []string{"severe blur"},
			RecommendResubmit: true,
		}

		result := NewDefault().Verify(spiritApp(), ext, time.Second)

		assert.Equal(t, model.StatusNeedsReview, result.Status)
		assert.Contains(t, strings.Join(result.ReviewReasons, "; "), "resubmission")
		require.NotNil(t, result.ImageQualityScore)
		assert.InDelta(t, 0.3, *result.ImageQualityScore, 1e-9)
	})

	t.Run("marginal score with issues routes to review", func(t *testing.T) {
		ext := matchingExtraction()
		ext.ImageQuality = &model.ImageQuality{
			Score:  0.6,
			Issues: []string{"glare over the producer address"},
		}

		result := NewDefault().Verify(spiritApp(), ext, time.Second)

		assert.Equal(t, model.StatusNeedsReview, result.Status)
		assert.Contains(t, strings.Join(result.ReviewReasons, "; "), "marginal")
	})

	t.Run("good quality does not block approval", func(t *testing.T) {
		ext := matchingExtraction()
		ext.ImageQuality = &model.ImageQuality{Score: 0.95}

		result := NewDefault().Verify(spiritApp(), ext, time.Second)

		assert.Equal(t, model.StatusApproved, result.Status)
	})
}

func TestVerify_ProcessingTime(t *testing.T) {
	fast := NewDefault().Verify(spiritApp(), matchingExtraction(), 1200*time.Millisecond)
	assert.Equal(t, int64(1200), fast.ProcessingTimeMs)
	assert.True(t, fast.MeetsTargetTime)

	slow := NewDefault().Verify(spiritApp(), matchingExtraction(), 6*time.Second)
	assert.False(t, slow.MeetsTargetTime)
}

func TestVerify_OverallConfidenceIsFloorOfExtraction(t *testing.T) {
	ext := matchingExtraction()
	ext.Confidence = 0.8

	result := NewDefault().Verify(spiritApp(), ext, time.Second)
	assert.LessOrEqual(t, result.OverallConfidence, 0.8)
}

func TestVerify_Deterministic(t *testing.T) {
	v := NewDefault()
	a := v.Verify(spiritApp(), matchingExtraction(), time.Second)
	b := v.Verify(spiritApp(), matchingExtraction(), time.Second)

	// Identical inputs yield identical verdicts apart from id and timestamp.
	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, a.OverallConfidence, b.OverallConfidence)
	assert.Equal(t, a.Fields, b.Fields)
	assert.Equal(t, a.Warning, b.Warning)
	assert.Equal(t, a.FlaggedIssues, b.FlaggedIssues)
	assert.Equal(t, a.ReviewReasons, b.ReviewReasons)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestVerify_LoweringConfidenceNeverApproves(t *testing.T) {
	for _, conf := range []float64{0.69, 0.5, 0.3, 0.0} {
		ext := matchingExtraction()
		ext.Confidence = conf
		result := NewDefault().Verify(spiritApp(), ext, time.Second)
		assert.NotEqual(t, model.StatusApproved, result.Status, "confidence %.2f", conf)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("defaults validate", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(DefaultVerifierConfig()))
	})

	t.Run("out of range threshold", func(t *testing.T) {
		cfg := DefaultVerifierConfig()
		cfg.AutoApproveConfidence = 1.5
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auto_approve_confidence")
	})

	t.Run("medium above auto-approve", func(t *testing.T) {
		cfg := DefaultVerifierConfig()
		cfg.MediumConfidence = 0.9
		cfg.AutoApproveConfidence = 0.8
		require.Error(t, ValidateConfig(cfg))
	})

	t.Run("non-positive target time", func(t *testing.T) {
		cfg := DefaultVerifierConfig()
		cfg.TargetTimeMs = 0
		require.Error(t, ValidateConfig(cfg))
	})
}
