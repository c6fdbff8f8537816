// Package vision wraps the external image-understanding service used to
// read alcohol beverage labels. The verification engine never talks to this
// package; callers turn the photograph into an extraction record before
// invoking the engine.
package vision

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ExtractionPrompt is the fixed instruction sent with every label
// photograph. The reply must be a single JSON object; fields the model
// cannot read are reported as the NOT_FOUND sentinel, which the extraction
// adapter strips before the record reaches the engine.
const ExtractionPrompt = `You are reading a photograph of an alcohol beverage label.
Extract the following fields exactly as printed and reply with a single JSON object,
no markdown fences, no commentary:

brand_name, fanciful_name, class_type, alcohol_content, proof, net_contents,
producer_name, producer_address, country_of_origin, vintage_year, appellation,
age_statement, government_warning (verbatim, preserving capitalization),
sulfite_declared (true/false), raw_text (all legible text), notes.

Also report:
- confidence: your overall extraction confidence from 0 to 1
- field_confidence: an object scoring individual fields from 0 to 1
- warning_format: {prefix_all_caps, bold, contrasting_background, text_complete, issues}
  (use null for bold or contrasting_background if you cannot tell)
- image_quality: {score from 0 to 1, issues, recommend_resubmit}

Use the string "NOT_FOUND" for any text field that is absent or illegible.`

// Client defines the vision service operations used by the extraction
// adapter.
type Client interface {
	ExtractLabel(ctx context.Context, image []byte, mediaType string) (string, error)
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client     sdk.Client
	model      string
	maxTokens  int64
	maxRetries int
}

// NewClient creates a vision client backed by the SDK.
func NewClient(apiKey, model string, maxTokens int64, maxRetries int) Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model:      model,
		maxTokens:  maxTokens,
		maxRetries: maxRetries,
	}
}

// ExtractLabel sends the label photograph with the fixed extraction
// instruction and returns the raw JSON reply. Transient failures are
// retried with exponential backoff.
func (c *sdkClient) ExtractLabel(ctx context.Context, image []byte, mediaType string) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mediaType, encoded),
				sdk.NewTextBlock(ExtractionPrompt),
			),
		},
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * time.Second
			zap.L().Warn("vision: retrying extraction",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", eris.Wrap(ctx.Err(), "vision: extract label")
			case <-time.After(backoff):
			}
		}

		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			lastErr = err
			continue
		}

		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		reply := strings.TrimSpace(sb.String())
		if reply == "" {
			lastErr = eris.New("vision: empty reply")
			continue
		}
		return reply, nil
	}

	return "", eris.Wrap(lastErr, "vision: extract label")
}
