package model

// ExtractedLabelData is the observed truth for one label photograph, as
// produced by the vision extraction adapter. Every field is optional; a nil
// pointer means the field was not present or not legible on the label.
// Sentinel strings like "NOT_FOUND" are cleaned at the extraction boundary
// and never reach this record.
type ExtractedLabelData struct {
	BrandName         *string `json:"brand_name,omitempty"`
	FancifulName      *string `json:"fanciful_name,omitempty"`
	ClassType         *string `json:"class_type,omitempty"`
	AlcoholContent    *string `json:"alcohol_content,omitempty"`
	Proof             *string `json:"proof,omitempty"`
	NetContents       *string `json:"net_contents,omitempty"`
	ProducerName      *string `json:"producer_name,omitempty"`
	ProducerAddress   *string `json:"producer_address,omitempty"`
	CountryOfOrigin   *string `json:"country_of_origin,omitempty"`
	VintageYear       *string `json:"vintage_year,omitempty"`
	Appellation       *string `json:"appellation,omitempty"`
	SulfiteDeclared   *bool   `json:"sulfite_declared,omitempty"`
	AgeStatement      *string `json:"age_statement,omitempty"`
	GovernmentWarning *string `json:"government_warning,omitempty"`

	// Confidence is the overall extraction confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// FieldConfidence optionally scores individual fields.
	FieldConfidence map[string]float64 `json:"field_confidence,omitempty"`

	WarningFormat *WarningFormat `json:"warning_format,omitempty"`
	ImageQuality  *ImageQuality  `json:"image_quality,omitempty"`

	RawText string `json:"raw_text,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// WarningFormat carries AI-asserted formatting attributes of the government
// warning statement. Bold and ContrastingBackground are nil when the model
// could not determine them.
type WarningFormat struct {
	PrefixAllCaps         bool     `json:"prefix_all_caps"`
	Bold                  *bool    `json:"bold,omitempty"`
	ContrastingBackground *bool    `json:"contrasting_background,omitempty"`
	TextComplete          bool     `json:"text_complete"`
	Issues                []string `json:"issues,omitempty"`
}

// ImageQuality is the extraction service's assessment of the label photo.
type ImageQuality struct {
	Score             float64  `json:"score"`
	Issues            []string `json:"issues,omitempty"`
	RecommendResubmit bool     `json:"recommend_resubmit"`
}
