package embeddings

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/retry"
)

// OpenAI model constants.
const (
	ModelTextEmbedding3Large = "text-embedding-3-large"
	ModelTextEmbedding3Small = "text-embedding-3-small"

	// Default rate limiter burst.
	rateLimiterBurst = 5

	// Maximum dimensions for text-embedding-3-large.
	maxLargeDimensions = 3072
)

var errEmptyResponse = errors.New("empty embedding response")

// OpenAIClient produces fingerprints via the OpenAI embeddings API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	dimensions  int
	rateLimiter *rate.Limiter
	retry       retry.Policy
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string // "text-embedding-3-large" or "text-embedding-3-small"
	Dimensions int    // Output dimensions (3072 max for large, 1536 for small)
	RateLimit  int    // Requests per second
}

// NewOpenAIClient creates a new OpenAI fingerprint client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = ModelTextEmbedding3Small
	}

	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), rateLimiterBurst),
		retry:       retry.DefaultPolicy(),
	}
}

// Fingerprint embeds the text. Texts shorter than MinFingerprintRunes are
// rejected client-side without a remote call; longer texts are truncated to
// MaxFingerprintChars. All failure paths wrap ErrUnavailable.
func (c *OpenAIClient) Fingerprint(ctx context.Context, text string) ([]float32, error) {
	if utf8.RuneCountInString(text) < MinFingerprintRunes {
		return nil, fmt.Errorf("%w: text below %d runes", ErrUnavailable, MinFingerprintRunes)
	}

	if len(text) > MaxFingerprintChars {
		cut := MaxFingerprintChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}

		text = text[:cut]
	}

	var vector []float32

	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return retry.Abort(fmt.Errorf("rate limiter: %w", err))
		}

		req := openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.model),
		}

		// text-embedding-3-large supports dimension reduction via API
		// parameter, keeping stored vectors at the schema width.
		if c.model == ModelTextEmbedding3Large && c.dimensions > 0 && c.dimensions < maxLargeDimensions {
			req.Dimensions = c.dimensions
		}

		resp, err := c.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return fmt.Errorf("openai embeddings: %w", err)
		}

		if len(resp.Data) == 0 {
			return errEmptyResponse
		}

		vector = resp.Data[0].Embedding

		return nil
	})
	if err != nil {
		observability.EmbeddingFailures.Inc()

		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return vector, nil
}

var _ Client = (*OpenAIClient)(nil)
