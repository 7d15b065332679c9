package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

type stubReader struct {
	metas    map[string]domain.ChannelMeta
	messages map[int64][]domain.Message
	fetchErr error
}

func (r *stubReader) ResolveChannel(_ context.Context, handle string) (domain.ChannelMeta, error) {
	meta, ok := r.metas[handle]
	if !ok {
		return domain.ChannelMeta{}, errors.New("unknown channel")
	}

	return meta, nil
}

func (r *stubReader) FetchMessages(_ context.Context, meta domain.ChannelMeta, afterID int64) ([]domain.Message, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}

	var out []domain.Message

	for _, m := range r.messages[meta.ID] {
		if m.MessageID > afterID {
			out = append(out, m)
		}
	}

	return out, nil
}

type memWatermarks struct {
	marks map[int64]int64
}

func (w *memWatermarks) GetWatermark(_ context.Context, channelID int64) (int64, error) {
	return w.marks[channelID], nil
}

func (w *memWatermarks) SetWatermark(_ context.Context, channelID, messageID int64) error {
	w.marks[channelID] = messageID

	return nil
}

func pollerFixture(t *testing.T, reader *stubReader) (*Poller, *fixture, *memWatermarks) {
	t.Helper()

	f := newFixture(t, func(f *fixture) {
		// No embeddings here, poller tests exercise flow, not dedup.
		f.embedder.Default = nil
	})
	marks := &memWatermarks{marks: make(map[int64]int64)}
	p := NewPoller(reader, marks, f.controller, []string{"alpha"}, time.Second, zerolog.Nop())

	return p, f, marks
}

func TestPollChannel_AdvancesWatermark(t *testing.T) {
	reader := &stubReader{
		metas: map[string]domain.ChannelMeta{"alpha": meta()},
		messages: map[int64][]domain.Message{
			1000: {
				*message(1, "first post about a new airdrop claim window"),
				*message(2, "second post about an exchange listing"),
			},
		},
	}

	p, f, marks := pollerFixture(t, reader)

	n, err := p.pollChannel(context.Background(), "alpha", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), marks.marks[1000])
	assert.Len(t, f.dispatcher.cards, 2)

	// Second cycle sees nothing new.
	n, err = p.pollChannel(context.Background(), "alpha", zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPollChannel_FailedMessageStillAdvances(t *testing.T) {
	reader := &stubReader{
		metas: map[string]domain.ChannelMeta{"alpha": meta()},
		messages: map[int64][]domain.Message{
			1000: {*message(5, "only post this cycle about restaking")},
		},
	}

	p, f, marks := pollerFixture(t, reader)
	f.classifier.ClassifyFunc = func(context.Context, string) (domain.Judgment, error) {
		return domain.Judgment{}, errors.New("retries exhausted")
	}

	n, err := p.pollChannel(context.Background(), "alpha", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(5), marks.marks[1000], "handled failure does not stall the watermark")
	assert.Empty(t, f.dispatcher.cards)
}

func TestPollChannel_FetchErrorLeavesWatermark(t *testing.T) {
	reader := &stubReader{
		metas:    map[string]domain.ChannelMeta{"alpha": meta()},
		fetchErr: errors.New("flood wait"),
	}

	p, _, marks := pollerFixture(t, reader)

	_, err := p.pollChannel(context.Background(), "alpha", zerolog.Nop())
	require.Error(t, err)
	assert.Zero(t, marks.marks[1000])
}
