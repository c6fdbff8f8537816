package model

import "time"

// VerificationStatus is the three-way verdict of a verification run.
type VerificationStatus string

const (
	StatusApproved    VerificationStatus = "approved"
	StatusRejected    VerificationStatus = "rejected"
	StatusNeedsReview VerificationStatus = "needs_review"
)

// FieldVerification records the comparison outcome for a single field.
type FieldVerification struct {
	Field            string  `json:"field"`
	ApplicationValue string  `json:"application_value"`
	ExtractedValue   *string `json:"extracted_value,omitempty"`
	Matches          bool    `json:"matches"`
	Confidence       float64 `json:"confidence"`
	Notes            string  `json:"notes,omitempty"`
}

// WarningVerification summarizes the government warning check.
type WarningVerification struct {
	Present bool     `json:"present"`
	Correct bool     `json:"correct"`
	Notes   string   `json:"notes,omitempty"`
	Issues  []string `json:"issues,omitempty"`
}

// VerificationResult is the engine's verdict for one application/label pair.
type VerificationResult struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Status VerificationStatus `json:"status"`

	// OverallConfidence is min(mean field confidence, extraction confidence),
	// a deliberate weakest-link combinator.
	OverallConfidence float64 `json:"overall_confidence"`

	Fields  []FieldVerification `json:"fields"`
	Warning WarningVerification `json:"warning"`

	MatchedFields int `json:"matched_fields"`
	TotalFields   int `json:"total_fields"`

	// FlaggedIssues are hard defects that justify rejection.
	FlaggedIssues []string `json:"flagged_issues,omitempty"`

	// RequiresHumanReview is set whenever any review reason was collected,
	// independent of the final status.
	RequiresHumanReview bool     `json:"requires_human_review"`
	ReviewReasons       []string `json:"review_reasons,omitempty"`

	ImageQualityScore  *float64 `json:"image_quality_score,omitempty"`
	ImageQualityIssues []string `json:"image_quality_issues,omitempty"`

	ProcessingTimeMs int64 `json:"processing_time_ms"`
	MeetsTargetTime  bool  `json:"meets_target_time"`
}
