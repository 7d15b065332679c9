// Package telegram adapts the MTProto user client to the relay: channel
// resolution, incremental history fetches, and photo downloads. Everything
// leaving this package is expressed in domain types.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
)

// ErrChannelNotFound indicates the handle resolved to nothing.
var ErrChannelNotFound = errors.New("channel not found")

// ErrNotAChannel indicates the handle resolved to a user or plain group.
var ErrNotAChannel = errors.New("peer is not a channel")

const maxPhotoBytes = 10 * 1024 * 1024

// Options configure the MTProto client.
type Options struct {
	APIID       int
	APIHash     string
	Phone       string
	Password    string
	SessionPath string
	FetchLimit  int
}

// Client is the MTProto reader. Construct with New, then call Run, which
// authenticates and hands a ready Client to the callback.
type Client struct {
	opts   Options
	client *telegram.Client
	api    *tg.Client
	logger zerolog.Logger
}

func New(opts Options, logger zerolog.Logger) *Client {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 20
	}

	return &Client{
		opts:   opts,
		logger: logger.With().Str("component", "telegram_reader").Logger(),
	}
}

// Run connects, authenticates, and invokes fn while the session is live.
// The session persists to disk so subsequent runs skip the code prompt.
func (c *Client) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	c.client = telegram.NewClient(c.opts.APIID, c.opts.APIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: c.opts.SessionPath},
	})

	return c.client.Run(ctx, func(ctx context.Context) error {
		if err := c.client.Auth().IfNecessary(ctx, c.authFlow()); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}

		c.logger.Info().Msg("authenticated as user")
		c.api = tg.NewClient(c.client)

		return fn(ctx)
	})
}

// ResolveChannel resolves a channel handle ("@name", "name", or a t.me link)
// to its metadata.
func (c *Client) ResolveChannel(ctx context.Context, handle string) (domain.ChannelMeta, error) {
	username := normalizeHandle(handle)
	if username == "" {
		return domain.ChannelMeta{}, fmt.Errorf("%w: %q", ErrChannelNotFound, handle)
	}

	resolved, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return domain.ChannelMeta{}, fmt.Errorf("resolve username %q: %w", username, err)
	}

	if len(resolved.Chats) == 0 {
		return domain.ChannelMeta{}, fmt.Errorf("%w: %s", ErrChannelNotFound, username)
	}

	channel, ok := resolved.Chats[0].(*tg.Channel)
	if !ok {
		return domain.ChannelMeta{}, fmt.Errorf("%w: %s", ErrNotAChannel, username)
	}

	return domain.ChannelMeta{
		ID:         channel.ID,
		AccessHash: channel.AccessHash,
		Title:      channel.Title,
		Username:   channel.Username,
		IsPublic:   channel.Username != "",
		Broadcast:  channel.Broadcast,
	}, nil
}

// FetchMessages returns messages with IDs strictly greater than afterID, in
// ascending ID order, at most the configured fetch limit. FLOOD_WAIT is
// honored by sleeping out the penalty and returning an empty batch.
func (c *Client) FetchMessages(ctx context.Context, meta domain.ChannelMeta, afterID int64) ([]domain.Message, error) {
	req := &tg.MessagesGetHistoryRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  meta.ID,
			AccessHash: meta.AccessHash,
		},
		Limit: c.opts.FetchLimit,
	}

	if afterID > 0 {
		req.OffsetID = int(afterID)
		req.AddOffset = -c.opts.FetchLimit
	}

	history, err := c.api.MessagesGetHistory(ctx, req)
	if err != nil {
		if floodErr, ok := tgerr.As(err); ok && floodErr.Type == "FLOOD_WAIT" {
			observability.ReaderFloodWaitSecondsTotal.WithLabelValues(meta.Username).Add(float64(floodErr.Argument))
			c.logger.Warn().Int("seconds", floodErr.Argument).Str("channel", meta.Username).Msg("flood wait")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(floodErr.Argument) * time.Second):
			}

			return nil, nil
		}

		observability.ReaderFetchRequestsTotal.WithLabelValues(meta.Username, "error").Inc()

		return nil, fmt.Errorf("get history for %s: %w", meta.Username, err)
	}

	observability.ReaderFetchRequestsTotal.WithLabelValues(meta.Username, "ok").Inc()

	raw, chats := unpackHistory(history)

	channelNames := make(map[int64]*tg.Channel, len(chats))
	for _, chat := range chats {
		if channel, ok := chat.(*tg.Channel); ok {
			channelNames[channel.ID] = channel
		}
	}

	messages := make([]domain.Message, 0, len(raw))

	for _, m := range raw {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		if int64(msg.ID) <= afterID {
			continue
		}

		if msg.Message == "" && msg.Media == nil {
			continue
		}

		out := domain.Message{
			ChannelID: meta.ID,
			MessageID: int64(msg.ID),
			Date:      time.Unix(int64(msg.Date), 0),
			Text:      msg.Message,
			Forward:   forwardProvenance(msg, channelNames),
		}

		if msg.Media != nil {
			data, err := c.downloadPhoto(ctx, msg.Media)
			if err != nil {
				c.logger.Warn().Err(err).Str("channel", meta.Username).Int("msg_id", msg.ID).Msg("media download failed")
			}

			out.HasMedia = true
			out.MediaData = data
		}

		messages = append(messages, out)
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].MessageID < messages[j].MessageID })

	return messages, nil
}

func forwardProvenance(msg *tg.Message, channels map[int64]*tg.Channel) *domain.ForwardProvenance {
	fwd, ok := msg.GetFwdFrom()
	if !ok {
		return nil
	}

	peer, ok := fwd.FromID.(*tg.PeerChannel)
	if !ok {
		return nil
	}

	originMsgID, hasOriginID := fwd.GetChannelPost()
	if !hasOriginID || originMsgID == 0 {
		return nil
	}

	prov := &domain.ForwardProvenance{
		OriginChannelID: peer.ChannelID,
		OriginMessageID: int64(originMsgID),
		OriginTitle:     fwd.FromName,
	}

	if channel, found := channels[peer.ChannelID]; found {
		if prov.OriginTitle == "" {
			prov.OriginTitle = channel.Title
		}

		prov.OriginUsername = channel.Username
	}

	return prov
}

// downloadPhoto downloads the largest available photo rendition. Non-photo
// media and oversized image documents are skipped without error.
func (c *Client) downloadPhoto(ctx context.Context, media tg.MessageMediaClass) ([]byte, error) {
	var fileLocation tg.InputFileLocationClass

	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.(*tg.Photo)
		if !ok {
			return nil, nil
		}

		thumbSize := largestPhotoSize(photo.Sizes)
		if thumbSize == "" {
			return nil, nil
		}

		fileLocation = &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     thumbSize,
		}

	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok || !strings.HasPrefix(doc.MimeType, "image/") || doc.Size > maxPhotoBytes {
			return nil, nil
		}

		fileLocation = &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}

	default:
		return nil, nil
	}

	buf := new(bytes.Buffer)
	if _, err := downloader.NewDownloader().Download(c.api, fileLocation).Stream(ctx, buf); err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	return buf.Bytes(), nil
}

func largestPhotoSize(sizes []tg.PhotoSizeClass) string {
	var (
		largest string
		maxArea int
	)

	for _, size := range sizes {
		switch s := size.(type) {
		case *tg.PhotoSize:
			if s.W*s.H > maxArea {
				maxArea = s.W * s.H
				largest = s.Type
			}
		case *tg.PhotoSizeProgressive:
			if s.W*s.H > maxArea {
				maxArea = s.W * s.H
				largest = s.Type
			}
		}
	}

	return largest
}

func unpackHistory(history tg.MessagesMessagesClass) ([]tg.MessageClass, []tg.ChatClass) {
	switch h := history.(type) {
	case *tg.MessagesMessages:
		return h.Messages, h.Chats
	case *tg.MessagesMessagesSlice:
		return h.Messages, h.Chats
	case *tg.MessagesChannelMessages:
		return h.Messages, h.Chats
	default:
		return nil, nil
	}
}

func normalizeHandle(handle string) string {
	h := strings.TrimSpace(handle)
	h = strings.TrimPrefix(h, "https://t.me/")
	h = strings.TrimPrefix(h, "t.me/")
	h = strings.TrimPrefix(h, "@")

	if i := strings.IndexByte(h, '/'); i >= 0 {
		h = h[:i]
	}

	return h
}
