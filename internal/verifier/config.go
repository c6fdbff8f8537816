// Package verifier implements the label verification decision engine: it
// runs every applicable field comparator and the warning validator over one
// application/extraction pair and applies the conservative
// approve/review/reject policy.
package verifier

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/labelproof/internal/config"
)

// DefaultVerifierConfig returns a config.VerifierConfig with the regulatory
// defaults the engine ships with.
func DefaultVerifierConfig() config.VerifierConfig {
	return config.VerifierConfig{
		// Decision thresholds.
		AutoApproveConfidence: 0.85,
		MediumConfidence:      0.70,
		LowConfidence:         0.75,
		WarningConfidence:     0.85,

		// Generic string field thresholds.
		ClassTypeThreshold:   0.85,
		ProducerThreshold:    0.80,
		CountryThreshold:     0.90,
		AppellationThreshold: 0.85,

		ImageQualityFloor: 0.70,
		MatchedFieldRatio: 0.8,
		TargetTimeMs:      5000,
	}
}

// ValidateConfig checks that a VerifierConfig is internally consistent.
func ValidateConfig(c config.VerifierConfig) error {
	var errs []string

	unit := map[string]float64{
		"auto_approve_confidence": c.AutoApproveConfidence,
		"medium_confidence":       c.MediumConfidence,
		"low_confidence":          c.LowConfidence,
		"warning_confidence":      c.WarningConfidence,
		"class_type_threshold":    c.ClassTypeThreshold,
		"producer_threshold":      c.ProducerThreshold,
		"country_threshold":       c.CountryThreshold,
		"appellation_threshold":   c.AppellationThreshold,
		"image_quality_floor":     c.ImageQualityFloor,
		"matched_field_ratio":     c.MatchedFieldRatio,
	}
	for name, v := range unit {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,1]", name))
		}
	}

	if c.MediumConfidence > c.AutoApproveConfidence {
		errs = append(errs, "medium_confidence must be <= auto_approve_confidence")
	}
	if c.TargetTimeMs <= 0 {
		errs = append(errs, "target_time_ms must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("verifier: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
