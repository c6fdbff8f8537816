// Package warning validates the government health warning statement
// mandated by 27 CFR part 16: presence, case-sensitive prefix, required
// content phrases, and (when the extraction service asserts them)
// formatting attributes.
package warning

import (
	"fmt"
	"strings"

	"github.com/sells-group/labelproof/internal/model"
	"github.com/sells-group/labelproof/internal/textutil"
)

// Prefix is the mandated statement opener, case-sensitive with colon.
const Prefix = "GOVERNMENT WARNING:"

// CanonicalText is the full mandated statement.
const CanonicalText = "GOVERNMENT WARNING: (1) According to the Surgeon General, " +
	"women should not drink alcoholic beverages during pregnancy because of " +
	"the risk of birth defects. (2) Consumption of alcoholic beverages impairs " +
	"your ability to drive a car or operate machinery, and may cause health problems."

// requiredPhrases must each occur in the normalized warning text.
var requiredPhrases = []string{
	"government warning",
	"surgeon general",
	"women should not drink",
	"pregnancy",
	"birth defects",
	"impairs your ability",
	"drive a car",
	"operate machinery",
	"health problems",
}

// Similarity bands for the supplied text against the canonical statement.
const (
	correctThreshold  = 0.95
	slightThreshold   = 0.85
	divergedThreshold = 0.70
)

// Validation is the outcome of a warning statement check.
type Validation struct {
	Present    bool     `json:"present"`
	Correct    bool     `json:"correct"`
	Confidence float64  `json:"confidence"`
	Notes      string   `json:"notes,omitempty"`
	Issues     []string `json:"issues,omitempty"`
}

// Validate checks the supplied warning text against the mandated statement.
// The prefix check is case-sensitive; content is compared over normalized
// text through the required phrase list and edit-distance similarity.
func Validate(text *string) Validation {
	if text == nil || strings.TrimSpace(*text) == "" {
		return Validation{
			Present: false,
			Correct: false,
			Issues:  []string{"government warning statement not found on label"},
		}
	}
	raw := *text

	if !strings.Contains(raw, Prefix) {
		return validateBadPrefix(raw)
	}

	v := Validation{Present: true}

	normalized := textutil.Normalize(raw)
	for _, phrase := range requiredPhrases {
		if !strings.Contains(normalized, phrase) {
			v.Issues = append(v.Issues, fmt.Sprintf("required phrase missing: %q", phrase))
		}
	}

	sim := textutil.Similarity(raw, CanonicalText)
	v.Confidence = sim
	switch {
	case sim >= correctThreshold:
		v.Correct = true
		v.Notes = "warning statement matches required text"
	case sim >= slightThreshold:
		v.Notes = "warning text differs slightly from the required statement"
		v.Issues = append(v.Issues, v.Notes)
	case sim >= divergedThreshold:
		v.Notes = "warning text differs from the required statement"
		v.Issues = append(v.Issues, v.Notes)
	default:
		v.Notes = "warning text is significantly different from the required statement"
		v.Issues = append(v.Issues, v.Notes)
	}

	return v
}

// validateBadPrefix handles text that mentions the warning but lacks the
// exact all-capitals prefix, diagnosing the specific defect.
func validateBadPrefix(raw string) Validation {
	lower := strings.ToLower(raw)
	if !strings.Contains(lower, "government warning") {
		return Validation{
			Present: false,
			Correct: false,
			Issues:  []string{"government warning statement not found on label"},
		}
	}

	v := Validation{
		Present:    true,
		Correct:    false,
		Confidence: textutil.Similarity(raw, CanonicalText),
		Notes:      "warning statement present but prefix is incorrect",
	}
	switch {
	case strings.Contains(raw, "Government Warning:"):
		v.Issues = append(v.Issues, `warning prefix must be in all capitals: found "Government Warning:"`)
	case strings.Contains(lower, "government warning:"):
		v.Issues = append(v.Issues, "warning prefix must be in all capitals")
	default:
		v.Issues = append(v.Issues, "warning prefix is missing the required colon")
	}
	return v
}

// ValidateWithFormat additionally consumes AI-asserted formatting flags.
// Formatting assertions and text-similarity assertions are independent
// failure signals; both must be clean for Correct to hold.
func ValidateWithFormat(text *string, format *model.WarningFormat) Validation {
	v := Validate(text)
	if format == nil || !v.Present {
		return v
	}

	if !format.PrefixAllCaps {
		v.Correct = false
		v.Issues = append(v.Issues, "warning prefix is not rendered in all capitals on the label")
	}
	if format.Bold != nil && !*format.Bold {
		v.Correct = false
		v.Issues = append(v.Issues, "warning text is not rendered in bold type")
	}
	if !format.TextComplete {
		v.Correct = false
		v.Issues = append(v.Issues, "warning text appears incomplete or truncated")
	}
	if format.ContrastingBackground != nil && !*format.ContrastingBackground {
		v.Correct = false
		v.Issues = append(v.Issues, "warning text lacks a contrasting background")
	}
	v.Issues = append(v.Issues, format.Issues...)

	return v
}
