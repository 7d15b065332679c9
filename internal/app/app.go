// Package app wires the relay together: storage, the MTProto reader, the
// classification and embedding clients, the admission controller, and the
// Bot API dispatcher.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
	"github.com/signalrelay/telegram-signal-relay/internal/core/embeddings"
	"github.com/signalrelay/telegram-signal-relay/internal/core/llm"
	"github.com/signalrelay/telegram-signal-relay/internal/ingest/telegram"
	"github.com/signalrelay/telegram-signal-relay/internal/output/dispatch"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/config"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
	"github.com/signalrelay/telegram-signal-relay/internal/process/admission"
	"github.com/signalrelay/telegram-signal-relay/internal/process/enrichment"
	"github.com/signalrelay/telegram-signal-relay/internal/process/rules"
	"github.com/signalrelay/telegram-signal-relay/internal/storage"
)

// App holds the application dependencies.
type App struct {
	cfg      *config.Config
	database *storage.DB
	logger   *zerolog.Logger
}

func New(cfg *config.Config, database *storage.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunRelay runs the full pipeline: the MTProto client connects, then the
// poller drives ingestion through admission to dispatch until the context
// is cancelled.
func (a *App) RunRelay(ctx context.Context) error {
	a.logger.Info().Int("channels", len(a.cfg.SourceChannels)).Msg("starting relay")

	botAPI, err := tgbotapi.NewBotAPI(a.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("bot init: %w", err)
	}

	dispatcher := dispatch.New(botAPI, dispatch.Destinations{
		Aggregator:    a.cfg.AggregatorChat,
		Important:     a.cfg.ImportantChat,
		PersonalChats: a.cfg.PersonalChatIDs,
		SecondaryTier: domain.ImportanceMedium,
	}, *a.logger)

	classifier := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:    a.cfg.LLMAPIKey,
		BaseURL:   a.cfg.LLMBaseURL,
		Model:     a.cfg.LLMModel,
		RateLimit: a.cfg.RateLimitRPS,
	}, a.logger)

	embedder := embeddings.NewOpenAIClient(embeddings.OpenAIConfig{
		APIKey:     a.cfg.LLMAPIKey,
		BaseURL:    a.cfg.LLMBaseURL,
		Model:      a.cfg.EmbeddingModel,
		Dimensions: a.cfg.EmbeddingDimensions,
		RateLimit:  a.cfg.RateLimitRPS,
	})

	controller := admission.NewController(
		a.database,
		embedder,
		classifier,
		rules.New(),
		a.newOCR(classifier),
		a.newLinkEnricher(),
		dispatcher,
		admission.Thresholds{
			Similarity:           a.cfg.SimilarityThreshold,
			DedupWindow:          a.cfg.DedupWindow(),
			DedupScanLimit:       a.cfg.DedupScanLimit,
			ImportanceTier:       domain.ParseImportance(a.cfg.ImportanceThreshold),
			MinInformativeLength: a.cfg.MinInformativeLength,
		},
		*a.logger,
	)

	reader := telegram.New(telegram.Options{
		APIID:       a.cfg.TGAPIID,
		APIHash:     a.cfg.TGAPIHash,
		Phone:       a.cfg.TGPhone,
		Password:    a.cfg.TG2FAPassword,
		SessionPath: a.cfg.TGSessionPath,
		FetchLimit:  a.cfg.ReaderFetchLimit,
	}, *a.logger)

	return reader.Run(ctx, func(ctx context.Context) error {
		poller := admission.NewPoller(
			reader,
			a.database,
			controller,
			a.cfg.SourceChannels,
			a.cfg.PollInterval,
			*a.logger,
		)

		return poller.Run(ctx)
	})
}

func (a *App) newOCR(classifier llm.Client) admission.OCRExtractor {
	return enrichment.NewOCR(classifier, a.cfg.OCREnabled, *a.logger)
}

func (a *App) newLinkEnricher() admission.LinkPreviewer {
	if !a.cfg.LinkEnrichmentEnabled {
		return nil
	}

	fetcher := enrichment.NewWebFetcher(a.cfg.WebFetchRPS, a.cfg.WebFetchTimeout)
	extractor := enrichment.NewContentExtractor(a.cfg.MaxContentLength)

	return enrichment.NewLinkEnricher(fetcher, extractor, a.cfg.MaxLinksPerMessage, *a.logger)
}
