// Package llm is the classification stage: it turns message text into a
// structured Judgment via a chat completion, and extracts legible text from
// images for OCR enrichment.
package llm

import (
	"context"
	"errors"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

// Input limits.
const (
	// MaxClassifyChars truncates input before the remote call.
	MaxClassifyChars = 8000

	// MaxCategories and MaxTags cap judgment lists, rule merges included.
	MaxCategories = 3
	MaxTags       = 7
)

// ErrMalformedResponse indicates the model returned something that does not
// parse as the expected JSON. It is a hard per-message failure, never retried.
var ErrMalformedResponse = errors.New("malformed classification response")

// Categories is the closed vocabulary a judgment may use.
var Categories = []string{
	"alpha", "news", "airdrop", "trading", "security",
	"regulation", "narrative", "ecosystem", "event",
}

// Client is the classification-stage interface.
type Client interface {
	// Classify judges one message text. Transient failures are retried
	// internally; a returned error means the message cannot be judged.
	Classify(ctx context.Context, text string) (domain.Judgment, error)

	// ExtractImageText performs OCR on an image via a vision completion.
	// An empty string with nil error means no legible text.
	ExtractImageText(ctx context.Context, image []byte) (string, error)
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}

	return false
}
