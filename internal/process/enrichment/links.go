// Package enrichment augments raw message text with the content of linked
// pages and text recovered from attached images, so classification sees more
// than the original post.
package enrichment

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/signalrelay/telegram-signal-relay/internal/platform/observability"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

const (
	defaultMaxLinks   = 3
	snippetMaxRunes   = 400
	maxAppendixLength = 6000
)

// Fetcher downloads a page body.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// LinkEnricher resolves the first links in a message to short previews.
type LinkEnricher struct {
	fetcher   Fetcher
	extractor *ContentExtractor
	maxLinks  int
	logger    zerolog.Logger
}

func NewLinkEnricher(fetcher Fetcher, extractor *ContentExtractor, maxLinks int, logger zerolog.Logger) *LinkEnricher {
	if maxLinks <= 0 {
		maxLinks = defaultMaxLinks
	}

	return &LinkEnricher{
		fetcher:   fetcher,
		extractor: extractor,
		maxLinks:  maxLinks,
		logger:    logger.With().Str("component", "link_enricher").Logger(),
	}
}

// ExtractURLs returns the distinct URLs in the text, in order of appearance,
// capped at the configured maximum. Telegram-internal links are skipped, a
// preview of a t.me post adds nothing the relay does not already have.
func (l *LinkEnricher) ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, l.maxLinks)

	for _, m := range matches {
		cleaned := strings.TrimRight(m, ".,;:)]}>")
		if cleaned == "" || isTelegramLink(cleaned) {
			continue
		}

		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}

		urls = append(urls, cleaned)
		if len(urls) >= l.maxLinks {
			break
		}
	}

	return urls
}

// Enrich fetches each link and returns preview lines in "title: snippet"
// form. Every failure is logged and skipped, link previews are best effort.
func (l *LinkEnricher) Enrich(ctx context.Context, text string) []string {
	urls := l.ExtractURLs(text)
	if len(urls) == 0 {
		return nil
	}

	lines := make([]string, 0, len(urls))

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return lines
		}

		body, err := l.fetcher.Fetch(ctx, u)
		if err != nil {
			observability.EnrichmentFailures.WithLabelValues("fetch").Inc()
			l.logger.Debug().Err(err).Str("url", u).Msg("link fetch failed")

			continue
		}

		content, err := l.extractor.Extract(body, u)
		if err != nil {
			observability.EnrichmentFailures.WithLabelValues("extract").Inc()
			l.logger.Debug().Err(err).Str("url", u).Msg("content extraction failed")

			continue
		}

		if line := previewLine(content); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

// ComposeInput appends OCR text and link previews to the message text and
// caps the result so classification prompts stay bounded.
func ComposeInput(text, ocrText string, linkLines []string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(text))

	if ocrText = strings.TrimSpace(ocrText); ocrText != "" {
		sb.WriteString("\n\n[Image text]\n")
		sb.WriteString(ocrText)
	}

	for _, line := range linkLines {
		sb.WriteString("\n\n[Linked page] ")
		sb.WriteString(line)
	}

	composed := sb.String()
	if len(composed) <= maxAppendixLength {
		return composed
	}

	return truncateRunes(composed, maxAppendixLength)
}

func previewLine(content *PageContent) string {
	snippet := content.Text
	if snippet == "" {
		snippet = content.Description
	}

	if r := []rune(snippet); len(r) > snippetMaxRunes {
		snippet = string(r[:snippetMaxRunes])
	}

	switch {
	case content.Title != "" && snippet != "":
		return content.Title + ": " + snippet
	case content.Title != "":
		return content.Title
	default:
		return snippet
	}
}

func isTelegramLink(u string) bool {
	lower := strings.ToLower(u)

	return strings.Contains(lower, "//t.me/") || strings.Contains(lower, "//telegram.me/")
}

func truncateRunes(s string, maxBytes int) string {
	cut := maxBytes
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}

	return s[:cut]
}
