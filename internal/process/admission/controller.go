// Package admission runs the per-message state machine: enrichment,
// fingerprinting, dedup, classification, rule adjustments, the admission
// decision, and dispatch.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
	"github.com/signalrelay/telegram-signal-relay/internal/core/embeddings"
	"github.com/signalrelay/telegram-signal-relay/internal/core/llm"
	"github.com/signalrelay/telegram-signal-relay/internal/output/dispatch"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
	"github.com/signalrelay/telegram-signal-relay/internal/process/enrichment"
	"github.com/signalrelay/telegram-signal-relay/internal/process/rules"
	"github.com/signalrelay/telegram-signal-relay/internal/storage"
)

// Outcome is the terminal state of one message.
type Outcome string

const (
	OutcomeSkipped     Outcome = "skipped"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeAlreadySeen Outcome = "already_seen"
	OutcomeSuppressed  Outcome = "suppressed"
	OutcomeDispatched  Outcome = "dispatched"
)

// Store is the persistence surface the controller needs.
type Store interface {
	InsertIfAbsent(ctx context.Context, rec *domain.Record) (bool, error)
	FindExactDuplicate(ctx context.Context, hash string, since time.Time) (*domain.Identity, error)
	FindSimilar(ctx context.Context, embedding []float32, since time.Time, threshold float32, scanLimit int) (*storage.SimilarMatch, error)
	UpdateClassification(ctx context.Context, id domain.Identity, j *domain.Judgment, originLink string) error
	MarkDispatched(ctx context.Context, id domain.Identity) error
}

// OCRExtractor recovers text from an attached image, best effort.
type OCRExtractor interface {
	Extract(ctx context.Context, image []byte) string
}

// LinkPreviewer resolves links in the text to preview lines, best effort.
type LinkPreviewer interface {
	Enrich(ctx context.Context, text string) []string
}

// Dispatcher delivers a formatted card to the destinations.
type Dispatcher interface {
	Dispatch(ctx context.Context, card string, tier domain.Importance) error
}

// Thresholds are the tunables of the admission decision.
type Thresholds struct {
	Similarity           float32
	DedupWindow          time.Duration
	DedupScanLimit       int
	ImportanceTier       domain.Importance
	MinInformativeLength int
}

// Controller decides the fate of each inbound message.
type Controller struct {
	store      Store
	embedder   embeddings.Client
	classifier llm.Client
	rules      *rules.Engine
	ocr        OCRExtractor
	links      LinkPreviewer
	dispatcher Dispatcher
	thresholds Thresholds
	logger     zerolog.Logger
	now        func() time.Time
}

func NewController(
	store Store,
	embedder embeddings.Client,
	classifier llm.Client,
	ruleEngine *rules.Engine,
	ocr OCRExtractor,
	links LinkPreviewer,
	dispatcher Dispatcher,
	thresholds Thresholds,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		store:      store,
		embedder:   embedder,
		classifier: classifier,
		rules:      ruleEngine,
		ocr:        ocr,
		links:      links,
		dispatcher: dispatcher,
		thresholds: thresholds,
		logger:     logger.With().Str("component", "admission").Logger(),
		now:        time.Now,
	}
}

// Process runs one message through the state machine. A returned error means
// the message failed mid-flight and may be retried on a later cycle only if
// it never reached the persisted stage.
//
//nolint:cyclop // the state machine reads best as one linear sequence
func (c *Controller) Process(ctx context.Context, msg *domain.Message, meta domain.ChannelMeta) (Outcome, error) {
	if msg.Text == "" && !msg.HasMedia {
		return OutcomeSkipped, nil
	}

	identity := msg.Identity()
	originLink := c.originLink(msg, meta)
	log := c.logger.With().Stringer("msg", identity).Logger()

	working, enriched := c.enrich(ctx, msg)

	hash := ContentHash(working)
	since := c.now().Add(-c.thresholds.DedupWindow)

	if dup, err := c.store.FindExactDuplicate(ctx, hash, since); err != nil {
		return "", fmt.Errorf("exact duplicate lookup: %w", err)
	} else if dup != nil {
		observability.DuplicatesTotal.WithLabelValues("exact").Inc()
		log.Debug().Stringer("duplicate_of", *dup).Msg("exact duplicate")

		return OutcomeDuplicate, nil
	}

	embedding := c.fingerprint(ctx, working, log)

	if embedding != nil {
		match, err := c.store.FindSimilar(ctx, embedding, since, c.thresholds.Similarity, c.thresholds.DedupScanLimit)
		if err != nil {
			return "", fmt.Errorf("similarity lookup: %w", err)
		}

		if match != nil {
			observability.DuplicatesTotal.WithLabelValues("similar").Inc()
			log.Debug().Stringer("duplicate_of", match.Identity).Float32("similarity", match.Similarity).Msg("near duplicate")

			return OutcomeDuplicate, nil
		}
	}

	rec := &domain.Record{
		Identity:    identity,
		CapturedAt:  c.now().UTC(),
		RawText:     working,
		ContentHash: hash,
		Embedding:   embedding,
		OriginLink:  originLink,
	}

	inserted, err := c.store.InsertIfAbsent(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("persist record: %w", err)
	}

	if !inserted {
		return OutcomeAlreadySeen, nil
	}

	judgment, err := c.classifier.Classify(ctx, working)
	if err != nil {
		return "", fmt.Errorf("classify %s: %w", identity, err)
	}

	if !judgment.Relevant || !judgment.Valuable {
		return c.suppress(ctx, identity, &judgment, originLink, "irrelevant", log)
	}

	tier, extraCats, extraTags := c.rules.Boost(working, judgment.Importance)
	judgment.Categories = mergeDistinct(judgment.Categories, extraCats, llm.MaxCategories)
	judgment.Tags = mergeDistinct(judgment.Tags, extraTags, llm.MaxTags)

	forced := c.rules.ForcesHigh(working)
	if forced {
		tier = domain.ImportanceHigh
	}

	judgment.Importance = tier

	// Vetoes beat every admission path, overrides included. A media-only
	// message is judged by what enrichment recovered, not by its empty text.
	if (msg.Text != "" || !enriched) && c.rules.IsMeaningless(msg.Text) {
		return c.suppress(ctx, identity, &judgment, originLink, "meaningless", log)
	}

	if c.rules.SummaryLacksSubstance(judgment.Summary) {
		return c.suppress(ctx, identity, &judgment, originLink, "empty_summary", log)
	}

	admitted := tier.AtLeast(c.thresholds.ImportanceTier) ||
		forced ||
		len([]rune(msg.Text)) >= c.thresholds.MinInformativeLength ||
		c.rules.HasHighValueKeyword(working) ||
		enriched

	if !admitted {
		return c.suppress(ctx, identity, &judgment, originLink, "below_threshold", log)
	}

	if err := c.store.UpdateClassification(ctx, identity, &judgment, originLink); err != nil {
		return "", fmt.Errorf("persist classification: %w", err)
	}

	card := dispatch.FormatCard(c.cardTitle(msg, meta), judgment, msg.Text, originLink)

	if err := c.dispatcher.Dispatch(ctx, card, tier); err != nil {
		return "", fmt.Errorf("dispatch %s: %w", identity, err)
	}

	if err := c.store.MarkDispatched(ctx, identity); err != nil {
		return "", fmt.Errorf("mark dispatched: %w", err)
	}

	log.Info().Str("tier", string(tier)).Msg("dispatched")

	return OutcomeDispatched, nil
}

// enrich appends OCR and link preview text to the message text. Both legs
// are best effort; the raw text always survives.
func (c *Controller) enrich(ctx context.Context, msg *domain.Message) (string, bool) {
	var ocrText string
	if c.ocr != nil && msg.HasMedia {
		ocrText = c.ocr.Extract(ctx, msg.MediaData)
	}

	var linkLines []string
	if c.links != nil {
		linkLines = c.links.Enrich(ctx, msg.Text)
	}

	return enrichment.ComposeInput(msg.Text, ocrText, linkLines), ocrText != "" || len(linkLines) > 0
}

func (c *Controller) fingerprint(ctx context.Context, working string, log zerolog.Logger) []float32 {
	embedding, err := c.embedder.Fingerprint(ctx, Canonicalize(working))
	if err != nil {
		if !errors.Is(err, embeddings.ErrUnavailable) {
			log.Warn().Err(err).Msg("fingerprint failed")
		}

		return nil
	}

	return embedding
}

func (c *Controller) suppress(ctx context.Context, id domain.Identity, j *domain.Judgment, originLink, reason string, log zerolog.Logger) (Outcome, error) {
	if err := c.store.UpdateClassification(ctx, id, j, originLink); err != nil {
		return "", fmt.Errorf("persist classification: %w", err)
	}

	observability.SuppressedTotal.WithLabelValues(reason).Inc()
	log.Debug().Str("reason", reason).Msg("suppressed")

	return OutcomeSuppressed, nil
}

// originLink points at the forward origin when the message is a forward.
func (c *Controller) originLink(msg *domain.Message, meta domain.ChannelMeta) string {
	if msg.Forward == nil {
		return meta.OriginLink(msg.MessageID)
	}

	origin := domain.ChannelMeta{
		ID:       msg.Forward.OriginChannelID,
		Username: msg.Forward.OriginUsername,
		IsPublic: msg.Forward.OriginUsername != "",
	}

	return origin.OriginLink(msg.Forward.OriginMessageID)
}

func (c *Controller) cardTitle(msg *domain.Message, meta domain.ChannelMeta) string {
	if msg.Forward != nil && msg.Forward.OriginTitle != "" {
		return msg.Forward.OriginTitle
	}

	return meta.Title
}

func mergeDistinct(base, extra []string, limit int) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))

	for _, v := range append(append([]string{}, base...), extra...) {
		if _, dup := seen[v]; dup || v == "" {
			continue
		}

		seen[v] = struct{}{}

		merged = append(merged, v)
		if len(merged) >= limit {
			break
		}
	}

	return merged
}
