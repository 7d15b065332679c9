// Package dispatch renders admitted messages as HTML cards and delivers
// them to the configured Telegram destinations via the Bot API.
package dispatch

import (
	"strings"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/htmlutils"
)

const (
	emojiHigh   = "🔥"
	emojiMedium = "⚡"
	emojiLow    = "📝"

	openOriginalLabel = "Open original"

	bodyLimit = 3000
)

func importanceEmoji(tier domain.Importance) string {
	switch tier {
	case domain.ImportanceHigh:
		return emojiHigh
	case domain.ImportanceMedium:
		return emojiMedium
	default:
		return emojiLow
	}
}

// FormatCard renders one admitted message as a Telegram HTML card. The title
// falls back from channel title to username, the body is the model summary
// with the raw text as last resort. Output stays within the message limit.
func FormatCard(channelTitle string, judgment domain.Judgment, rawText, originLink string) string {
	title := strings.TrimSpace(channelTitle)
	if title == "" {
		title = "Channel"
	}

	body := strings.TrimSpace(judgment.Summary)
	if body == "" {
		body = strings.TrimSpace(rawText)
	}

	// Cap the body first so the final guard never has to cut inside markup.
	body = htmlutils.TruncateUTF16(body, bodyLimit)

	var sb strings.Builder

	sb.WriteString("<b>")
	sb.WriteString(importanceEmoji(judgment.Importance))
	sb.WriteString(" ")
	sb.WriteString(htmlutils.Escape(title))
	sb.WriteString("</b>\n")

	sb.WriteString("<blockquote>")
	sb.WriteString(htmlutils.Escape(body))
	sb.WriteString("</blockquote>")

	if len(judgment.Categories) > 0 {
		sb.WriteString("\n<b>Categories:</b> ")
		sb.WriteString(htmlutils.Escape(strings.Join(judgment.Categories, ", ")))
	}

	if len(judgment.Tags) > 0 {
		sb.WriteString("\n<b>Tags:</b> ")
		sb.WriteString(htmlutils.Escape("#" + strings.Join(judgment.Tags, " #")))
	}

	if note := strings.TrimSpace(judgment.MonetizationNote); note != "" {
		sb.WriteString("\n💰 ")
		sb.WriteString(htmlutils.Escape(note))
	}

	if guide := strings.TrimSpace(judgment.ActionGuide); guide != "" {
		sb.WriteString("\n✅ ")
		sb.WriteString(htmlutils.Escape(guide))
	}

	if originLink != "" {
		sb.WriteString("\n<a href=\"")
		sb.WriteString(htmlutils.Escape(originLink))
		sb.WriteString("\">")
		sb.WriteString(openOriginalLabel)
		sb.WriteString("</a>")
	}

	return htmlutils.TruncateUTF16(sb.String(), htmlutils.MessageLimit)
}
