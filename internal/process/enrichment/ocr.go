package enrichment

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/signalrelay/telegram-signal-relay/internal/core/llm"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
)

// OCR recovers text from attached images via the vision model. Disabled or
// failing OCR never blocks a message, the caller gets an empty string.
type OCR struct {
	client  llm.Client
	enabled bool
	logger  zerolog.Logger
}

func NewOCR(client llm.Client, enabled bool, logger zerolog.Logger) *OCR {
	return &OCR{
		client:  client,
		enabled: enabled,
		logger:  logger.With().Str("component", "ocr").Logger(),
	}
}

func (o *OCR) Extract(ctx context.Context, image []byte) string {
	if !o.enabled || len(image) == 0 {
		return ""
	}

	text, err := o.client.ExtractImageText(ctx, image)
	if err != nil {
		observability.EnrichmentFailures.WithLabelValues("ocr").Inc()
		o.logger.Warn().Err(err).Msg("image text extraction failed")

		return ""
	}

	return text
}
