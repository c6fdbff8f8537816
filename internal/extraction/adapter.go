// Package extraction adapts the vision service's raw JSON reply into the
// engine's ExtractedLabelData record. Sentinel "not found" strings are
// cleaned here, at the boundary, so the comparators only ever see real
// values or nil.
package extraction

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/pkg/vision"
)

// sentinels are reply values that mean "absent or illegible".
var sentinels = map[string]bool{
	"":            true,
	"NOT_FOUND":   true,
	"NOT_LEGIBLE": true,
	"NOT_VISIBLE": true,
	"N/A":         true,
	"NONE":        true,
	"NULL":        true,
}

// RawExtraction mirrors the vision service's JSON reply shape before
// sentinel cleaning.
type RawExtraction struct {
	BrandName         string `json:"brand_name"`
	FancifulName      string `json:"fanciful_name"`
	ClassType         string `json:"class_type"`
	AlcoholContent    string `json:"alcohol_content"`
	Proof             string `json:"proof"`
	NetContents       string `json:"net_contents"`
	ProducerName      string `json:"producer_name"`
	ProducerAddress   string `json:"producer_address"`
	CountryOfOrigin   string `json:"country_of_origin"`
	VintageYear       string `json:"vintage_year"`
	Appellation       string `json:"appellation"`
	AgeStatement      string `json:"age_statement"`
	GovernmentWarning string `json:"government_warning"`
	SulfiteDeclared   *bool  `json:"sulfite_declared"`

	Confidence      float64              `json:"confidence"`
	FieldConfidence map[string]float64   `json:"field_confidence"`
	WarningFormat   *model.WarningFormat `json:"warning_format"`
	ImageQuality    *model.ImageQuality  `json:"image_quality"`

	RawText string `json:"raw_text"`
	Notes   string `json:"notes"`
}

// Clean converts a raw reply into the engine's record, mapping sentinel
// strings to nil.
func Clean(raw *RawExtraction) *model.ExtractedLabelData {
	return &model.ExtractedLabelData{
		BrandName:         cleanField(raw.BrandName),
		FancifulName:      cleanField(raw.FancifulName),
		ClassType:         cleanField(raw.ClassType),
		AlcoholContent:    cleanField(raw.AlcoholContent),
		Proof:             cleanField(raw.Proof),
		NetContents:       cleanField(raw.NetContents),
		ProducerName:      cleanField(raw.ProducerName),
		ProducerAddress:   cleanField(raw.ProducerAddress),
		CountryOfOrigin:   cleanField(raw.CountryOfOrigin),
		VintageYear:       cleanField(raw.VintageYear),
		Appellation:       cleanField(raw.Appellation),
		AgeStatement:      cleanField(raw.AgeStatement),
		GovernmentWarning: cleanField(raw.GovernmentWarning),
		SulfiteDeclared:   raw.SulfiteDeclared,
		Confidence:        clampUnit(raw.Confidence),
		FieldConfidence:   raw.FieldConfidence,
		WarningFormat:     raw.WarningFormat,
		ImageQuality:      raw.ImageQuality,
		RawText:           raw.RawText,
		Notes:             raw.Notes,
	}
}

// cleanField returns nil for sentinel values, otherwise the trimmed value.
func cleanField(s string) *string {
	trimmed := strings.TrimSpace(s)
	if sentinels[strings.ToUpper(trimmed)] {
		return nil
	}
	return &trimmed
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Extractor calls the vision service and produces clean extraction records.
// Calls are rate-limited to respect the service's quota.
type Extractor struct {
	client  vision.Client
	limiter *rate.Limiter
}

// NewExtractor creates an Extractor. requestsPerMin bounds the call rate;
// zero or negative disables limiting.
func NewExtractor(client vision.Client, requestsPerMin float64) *Extractor {
	var limiter *rate.Limiter
	if requestsPerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerMin/60), 1)
	}
	return &Extractor{client: client, limiter: limiter}
}

// Extract sends the label photograph to the vision service and parses the
// reply into an ExtractedLabelData record.
func (e *Extractor) Extract(ctx context.Context, image []byte, mediaType string) (*model.ExtractedLabelData, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "extraction: rate limit wait")
		}
	}

	reply, err := e.client.ExtractLabel(ctx, image, mediaType)
	if err != nil {
		return nil, eris.Wrap(err, "extraction: call vision service")
	}

	raw, err := ParseReply(reply)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("extraction: label extracted",
		zap.Float64("confidence", raw.Confidence),
	)

	return Clean(raw), nil
}

// ParseReply parses the vision service's JSON reply, tolerating markdown
// code fences some models wrap around JSON despite instructions.
func ParseReply(reply string) (*RawExtraction, error) {
	trimmed := strings.TrimSpace(reply)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var raw RawExtraction
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, eris.Wrap(err, "extraction: parse vision reply")
	}
	return &raw, nil
}
