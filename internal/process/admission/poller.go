package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/worker"
)

// Reader fetches channel history from the transport.
type Reader interface {
	ChannelResolver
	FetchMessages(ctx context.Context, meta domain.ChannelMeta, afterID int64) ([]domain.Message, error)
}

// WatermarkStore persists per-channel progress.
type WatermarkStore interface {
	GetWatermark(ctx context.Context, channelID int64) (int64, error)
	SetWatermark(ctx context.Context, channelID, messageID int64) error
}

// Poller drives the relay: one worker, fixed interval, channels processed
// sequentially, messages in ascending id order one at a time. Running two
// instances against the same database is unsupported.
type Poller struct {
	reader     Reader
	metas      *MetaCache
	store      WatermarkStore
	controller *Controller
	channels   []string
	interval   time.Duration
	logger     zerolog.Logger
}

func NewPoller(
	reader Reader,
	store WatermarkStore,
	controller *Controller,
	channels []string,
	interval time.Duration,
	logger zerolog.Logger,
) *Poller {
	return &Poller{
		reader:     reader,
		metas:      NewMetaCache(reader, 0),
		store:      store,
		controller: controller,
		channels:   channels,
		interval:   interval,
		logger:     logger.With().Str("component", "poller").Logger(),
	}
}

func (p *Poller) Run(ctx context.Context) error {
	return worker.SingleTickerLoop(ctx, worker.SingleTickerConfig{
		Name:       "relay_poller",
		Interval:   p.interval,
		OnTick:     p.cycle,
		RunOnStart: true,
		Logger:     &p.logger,
	})
}

func (p *Poller) cycle(ctx context.Context) {
	log := p.logger.With().Str("cycle_id", uuid.NewString()).Logger()
	defer worker.RecoverPanic(&log, "poll cycle")

	start := time.Now()
	processed := 0

	for _, handle := range p.channels {
		if ctx.Err() != nil {
			return
		}

		n, err := p.pollChannel(ctx, handle, log)
		if err != nil {
			log.Error().Err(err).Str("channel", handle).Msg("channel poll failed")

			continue
		}

		processed += n
	}

	log.Info().Int("messages", processed).Dur("duration", time.Since(start)).Msg("cycle finished")
}

// pollChannel processes everything newer than the watermark. The watermark
// advances after the batch even when individual messages failed: a failed
// message is dropped, not replayed forever.
func (p *Poller) pollChannel(ctx context.Context, handle string, log zerolog.Logger) (int, error) {
	meta, err := p.metas.Get(ctx, handle)
	if err != nil {
		return 0, err
	}

	watermark, err := p.store.GetWatermark(ctx, meta.ID)
	if err != nil {
		return 0, err
	}

	messages, err := p.reader.FetchMessages(ctx, meta, watermark)
	if err != nil {
		return 0, err
	}

	if len(messages) == 0 {
		observability.WatermarkLag.WithLabelValues(meta.Username).Set(0)

		return 0, nil
	}

	maxID := watermark
	processed := 0

	for i := range messages {
		if ctx.Err() != nil {
			break
		}

		msg := &messages[i]

		outcome, err := p.controller.Process(ctx, msg, meta)
		if err != nil {
			log.Error().Err(err).Str("channel", handle).Int64("msg_id", msg.MessageID).Msg("message processing failed")
		} else {
			log.Debug().Str("channel", handle).Int64("msg_id", msg.MessageID).Str("outcome", string(outcome)).Msg("message processed")
		}

		observability.MessagesIngested.WithLabelValues(meta.Username).Inc()

		if msg.MessageID > maxID {
			maxID = msg.MessageID
		}

		processed++
	}

	if maxID > watermark {
		if err := p.store.SetWatermark(ctx, meta.ID, maxID); err != nil {
			return processed, err
		}
	}

	observability.WatermarkLag.WithLabelValues(meta.Username).Set(float64(len(messages) - processed))

	return processed, nil
}
