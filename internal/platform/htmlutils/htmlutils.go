// Package htmlutils provides HTML helpers for Telegram output.
//
// Telegram counts message length in UTF-16 code units, not Unicode code
// points, so truncation works on code units. Only text content is ever
// escaped; markup is produced by the dispatcher itself.
package htmlutils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
)

// MessageLimit is Telegram's maximum message length in UTF-16 code units.
const MessageLimit = 4096

var tagRegex = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)

// Escape escapes text for inclusion inside Telegram HTML markup.
func Escape(s string) string {
	return html.EscapeString(s)
}

// UTF16Len returns the number of UTF-16 code units needed to encode the string.
// Characters outside the BMP (emoji, etc.) require surrogate pairs (2 code units).
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// TruncateUTF16 returns the longest prefix of s that fits in maxUnits UTF-16
// code units, appending an ellipsis when anything was cut.
func TruncateUTF16(s string, maxUnits int) string {
	if UTF16Len(s) <= maxUnits {
		return s
	}

	const ellipsis = "…"

	budget := maxUnits - UTF16Len(ellipsis)
	if budget <= 0 {
		return ellipsis
	}

	runes := []rune(s)
	units := 0

	for i, r := range runes {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2
		}

		if units+runeUnits > budget {
			return strings.TrimRight(string(runes[:i]), " \t\n") + ellipsis
		}

		units += runeUnits
	}

	return s
}

// StripTags removes all HTML tags from text, keeping only the content.
func StripTags(text string) string {
	result := tagRegex.ReplaceAllString(text, "")
	result = html.UnescapeString(result)

	return strings.TrimSpace(result)
}
