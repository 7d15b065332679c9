package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
)

// BotAPI is the slice of the Bot API client the dispatcher needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Destinations name where admitted messages go. Aggregator receives
// everything and its delivery is mandatory; the important channel and
// personal chats receive only messages at or above the secondary tier and
// are best effort.
type Destinations struct {
	Aggregator    string
	Important     string
	PersonalChats []int64
	SecondaryTier domain.Importance
}

// Dispatcher fans one formatted card out to the destinations.
type Dispatcher struct {
	api    BotAPI
	dests  Destinations
	logger zerolog.Logger
}

func New(api BotAPI, dests Destinations, logger zerolog.Logger) *Dispatcher {
	if dests.SecondaryTier == "" {
		dests.SecondaryTier = domain.ImportanceMedium
	}

	return &Dispatcher{
		api:    api,
		dests:  dests,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch sends the card. A primary (aggregator) failure is returned so the
// caller can leave the record undispatched and retry on a later cycle.
// Secondary failures are logged and counted but never fail the dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, card string, tier domain.Importance) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := d.send(d.dests.Aggregator, card); err != nil {
		observability.DeliveryFailures.WithLabelValues("aggregator").Inc()

		return fmt.Errorf("deliver to aggregator: %w", err)
	}

	observability.DispatchedTotal.WithLabelValues("aggregator").Inc()

	if !tier.AtLeast(d.dests.SecondaryTier) {
		return nil
	}

	if d.dests.Important != "" {
		if err := d.send(d.dests.Important, card); err != nil {
			observability.DeliveryFailures.WithLabelValues("important").Inc()
			d.logger.Warn().Err(err).Msg("important channel delivery failed")
		} else {
			observability.DispatchedTotal.WithLabelValues("important").Inc()
		}
	}

	for _, chatID := range d.dests.PersonalChats {
		if err := d.sendToChat(chatID, card); err != nil {
			observability.DeliveryFailures.WithLabelValues("personal").Inc()
			d.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("personal chat delivery failed")

			continue
		}

		observability.DispatchedTotal.WithLabelValues("personal").Inc()
	}

	return nil
}

// send accepts either a numeric chat ID or an @username destination.
func (d *Dispatcher) send(destination, card string) error {
	destination = strings.TrimSpace(destination)

	if chatID, err := strconv.ParseInt(destination, 10, 64); err == nil {
		return d.sendToChat(chatID, card)
	}

	if !strings.HasPrefix(destination, "@") {
		destination = "@" + destination
	}

	msg := tgbotapi.NewMessageToChannel(destination, card)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	_, err := d.api.Send(msg)

	return err
}

func (d *Dispatcher) sendToChat(chatID int64, card string) error {
	msg := tgbotapi.NewMessage(chatID, card)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	_, err := d.api.Send(msg)

	return err
}
