package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/htmlutils"
)

type fakeBot struct {
	sent    []tgbotapi.MessageConfig
	failFor map[string]error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable type")
	}

	key := msg.ChannelUsername
	if key == "" {
		key = "chat"
	}

	if err, fail := f.failFor[key]; fail {
		return tgbotapi.Message{}, err
	}

	f.sent = append(f.sent, msg)

	return tgbotapi.Message{}, nil
}

func TestFormatCard(t *testing.T) {
	judgment := domain.Judgment{
		Importance:       domain.ImportanceHigh,
		Categories:       []string{"airdrop", "event"},
		Tags:             []string{"zk", "testnet"},
		Summary:          "Project X opened claims. <script> must be escaped.",
		MonetizationNote: "Claim before Friday.",
		ActionGuide:      "Connect wallet and claim.",
	}

	card := FormatCard("Alpha & Friends", judgment, "raw", "https://t.me/alpha/42")

	assert.True(t, strings.HasPrefix(card, "<b>🔥 Alpha &amp; Friends</b>"))
	assert.Contains(t, card, "<blockquote>Project X opened claims. &lt;script&gt; must be escaped.</blockquote>")
	assert.Contains(t, card, "<b>Categories:</b> airdrop, event")
	assert.Contains(t, card, "<b>Tags:</b> #zk #testnet")
	assert.Contains(t, card, "💰 Claim before Friday.")
	assert.Contains(t, card, "✅ Connect wallet and claim.")
	assert.Contains(t, card, `<a href="https://t.me/alpha/42">Open original</a>`)
}

func TestFormatCard_TierEmojis(t *testing.T) {
	for tier, emoji := range map[domain.Importance]string{
		domain.ImportanceHigh:   "🔥",
		domain.ImportanceMedium: "⚡",
		domain.ImportanceLow:    "📝",
	} {
		card := FormatCard("Ch", domain.Judgment{Importance: tier, Summary: "s"}, "", "")
		assert.Contains(t, card, emoji, "tier %s", tier)
	}
}

func TestFormatCard_FallsBackToRawText(t *testing.T) {
	card := FormatCard("Ch", domain.Judgment{Importance: domain.ImportanceLow}, "original body", "")
	assert.Contains(t, card, "<blockquote>original body</blockquote>")
}

func TestFormatCard_StaysWithinMessageLimit(t *testing.T) {
	judgment := domain.Judgment{
		Importance: domain.ImportanceMedium,
		Summary:    strings.Repeat("long summary ", 1000),
	}

	card := FormatCard("Ch", judgment, "", "https://t.me/ch/1")

	assert.LessOrEqual(t, htmlutils.UTF16Len(card), htmlutils.MessageLimit)
	assert.Contains(t, card, "Open original", "link must survive truncation")
}

func TestDispatch_PrimaryOnly(t *testing.T) {
	bot := &fakeBot{}
	d := New(bot, Destinations{
		Aggregator:    "@agg",
		Important:     "@imp",
		PersonalChats: []int64{100},
		SecondaryTier: domain.ImportanceMedium,
	}, zerolog.Nop())

	err := d.Dispatch(context.Background(), "card", domain.ImportanceLow)
	require.NoError(t, err)
	require.Len(t, bot.sent, 1, "low importance goes to the aggregator only")
	assert.Equal(t, "@agg", bot.sent[0].ChannelUsername)
}

func TestDispatch_SecondaryFanOut(t *testing.T) {
	bot := &fakeBot{}
	d := New(bot, Destinations{
		Aggregator:    "@agg",
		Important:     "@imp",
		PersonalChats: []int64{100, 200},
		SecondaryTier: domain.ImportanceMedium,
	}, zerolog.Nop())

	err := d.Dispatch(context.Background(), "card", domain.ImportanceHigh)
	require.NoError(t, err)
	assert.Len(t, bot.sent, 4)
}

func TestDispatch_PrimaryFailureAborts(t *testing.T) {
	bot := &fakeBot{failFor: map[string]error{"@agg": errors.New("bad request")}}
	d := New(bot, Destinations{Aggregator: "@agg", Important: "@imp"}, zerolog.Nop())

	err := d.Dispatch(context.Background(), "card", domain.ImportanceHigh)
	require.Error(t, err)
	assert.Empty(t, bot.sent, "nothing reaches secondaries when the aggregator fails")
}

func TestDispatch_SecondaryFailureIsBestEffort(t *testing.T) {
	bot := &fakeBot{failFor: map[string]error{"@imp": errors.New("kicked")}}
	d := New(bot, Destinations{
		Aggregator:    "@agg",
		Important:     "@imp",
		PersonalChats: []int64{100},
	}, zerolog.Nop())

	err := d.Dispatch(context.Background(), "card", domain.ImportanceHigh)
	require.NoError(t, err)
	assert.Len(t, bot.sent, 2, "aggregator and personal chat still delivered")
}

func TestDispatch_NumericDestination(t *testing.T) {
	bot := &fakeBot{}
	d := New(bot, Destinations{Aggregator: "-1001234567890"}, zerolog.Nop())

	err := d.Dispatch(context.Background(), "card", domain.ImportanceLow)
	require.NoError(t, err)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(-1001234567890), bot.sent[0].ChatID)
}
