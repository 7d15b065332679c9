package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/retry"
)

const rateLimiterBurst = 5

type openaiClient struct {
	client      *openai.Client
	model       string
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	retry       retry.Policy
}

// OpenAIConfig holds configuration for the OpenAI classification client.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	RateLimit int // Requests per second
}

// NewOpenAI creates the production classification client.
func NewOpenAI(cfg OpenAIConfig, logger *zerolog.Logger) Client {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openaiClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)), rateLimiterBurst),
		retry:       retry.DefaultPolicy(),
	}
}

// judgmentPayload mirrors the JSON contract of the classification prompt.
type judgmentPayload struct {
	Relevant         bool     `json:"relevant"`
	Valuable         bool     `json:"valuable"`
	Importance       string   `json:"importance"`
	Categories       []string `json:"categories"`
	Tags             []string `json:"tags"`
	Summary          string   `json:"summary"`
	MonetizationNote string   `json:"monetization_note"`
	ActionGuide      string   `json:"action_guide"`
	RelevanceReason  string   `json:"relevance_reason"`
	ValueReason      string   `json:"value_reason"`
}

func (c *openaiClient) Classify(ctx context.Context, text string) (domain.Judgment, error) {
	text = truncateChars(text, MaxClassifyChars)

	var content string

	start := time.Now()

	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return retry.Abort(fmt.Errorf("rate limiter: %w", err))
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return fmt.Errorf("openai chat completion: %w", err)
		}

		if len(resp.Choices) == 0 {
			return retry.Abort(fmt.Errorf("%w: no choices", ErrMalformedResponse))
		}

		content = resp.Choices[0].Message.Content

		return nil
	})

	observability.ClassificationDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.ClassificationFailures.Inc()

		return domain.Judgment{}, err
	}

	judgment, err := parseJudgment(content)
	if err != nil {
		observability.ClassificationFailures.Inc()

		return domain.Judgment{}, err
	}

	return judgment, nil
}

// parseJudgment decodes and normalizes the model output. A decode failure is
// ErrMalformedResponse; the model already answered, so there is nothing to
// retry.
func parseJudgment(content string) (domain.Judgment, error) {
	var payload judgmentPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	categories := make([]string, 0, MaxCategories)

	for _, cat := range payload.Categories {
		cat = strings.ToLower(strings.TrimSpace(cat))
		if validCategory(cat) && len(categories) < MaxCategories {
			categories = append(categories, cat)
		}
	}

	tags := make([]string, 0, MaxTags)

	for _, tag := range payload.Tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && len(tags) < MaxTags {
			tags = append(tags, tag)
		}
	}

	return domain.Judgment{
		Relevant:         payload.Relevant,
		Valuable:         payload.Valuable,
		Importance:       domain.ParseImportance(payload.Importance),
		Categories:       categories,
		Tags:             tags,
		Summary:          strings.TrimSpace(payload.Summary),
		MonetizationNote: strings.TrimSpace(payload.MonetizationNote),
		ActionGuide:      strings.TrimSpace(payload.ActionGuide),
		RelevanceReason:  strings.TrimSpace(payload.RelevanceReason),
		ValueReason:      strings.TrimSpace(payload.ValueReason),
	}, nil
}

func (c *openaiClient) ExtractImageText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	mimeType := http.DetectContentType(image)
	encoded := base64.StdEncoding.EncodeToString(image)

	var content string

	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return retry.Abort(fmt.Errorf("rate limiter: %w", err))
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: ocrSystemPrompt},
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, encoded),
								Detail: openai.ImageURLDetailLow,
							},
						},
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("openai vision completion: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil
		}

		content = strings.TrimSpace(resp.Choices[0].Message.Content)

		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}

func truncateChars(text string, limit int) string {
	if len(text) <= limit {
		return text
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	return text[:cut]
}

var _ Client = (*openaiClient)(nil)
