// Package rules applies deterministic adjustments on top of model judgments:
// event/action vocabulary boosts, link-based force-high overrides, and the
// meaningless-text and empty-summary vetoes.
package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

// Korean and English vocabulary for giveaway/event posts and the
// participation actions they demand.
var (
	defaultEventTerms = regexp.MustCompile(
		`(?i)(이벤트|추첨|경품|기프티콘|커피|스타벅스|나눔|쿠폰|리워드|럭키\s?드로우|라플|raffle|giveaway|bounty|reward|에어\s?드랍|air\s?drop|airdrop)`)

	defaultActionTerms = regexp.MustCompile(
		`(?i)(참여|참가|신청|등록|리트윗|\bRT\b|팔로우|팔로윙|팔로|like|좋아요|코멘트|댓글|share|공유|퀘스트|gleam|galxe|zealy)`)

	defaultForceHighLinks = regexp.MustCompile(
		`(?i)(forms\.gle/|docs\.google\.com/forms)`)

	defaultForceHighKeywords = regexp.MustCompile(
		`(?i)https?://\S*(whitelist|allowlist|presale|airdrop|claim)`)

	defaultHighValueKeywords = regexp.MustCompile(
		`(?i)(\b(whitelist|allowlist|presale|airdrop|snapshot|mint|claim)\b|화이트리스트|프리세일|에어드랍|스냅샷|민팅)`)
)

var defaultGreetings = []string{
	"gm", "gn", "hi", "hello", "hey", "yo", "ty", "thx", "thanks", "thank you",
	"ok", "okay", "lol", "lfg", "wagmi", "nice", "cool",
	"안녕", "안녕하세요", "감사", "감사합니다", "ㅎㅇ", "ㄱㅅ",
}

var defaultEmptySummaryPhrases = []string{
	"nothing to summarize",
	"no meaningful content",
	"no content",
	"n/a",
	"none",
	"요약할 내용이 없습니다",
	"요약할 내용 없음",
	"내용 없음",
	"없음",
}

const (
	boostCategory = "event"
	boostTag      = "giveaway"
)

// Engine evaluates the rule set. The zero value is not usable; construct
// with New and override lists via options where a deployment needs to.
type Engine struct {
	eventTerms          *regexp.Regexp
	actionTerms         *regexp.Regexp
	forceHighLinks      *regexp.Regexp
	forceHighKeywords   *regexp.Regexp
	highValueKeywords   *regexp.Regexp
	greetings           map[string]struct{}
	emptySummaryPhrases []string
}

// Option overrides one of the default phrase lists.
type Option func(*Engine)

func WithEventTerms(re *regexp.Regexp) Option {
	return func(e *Engine) { e.eventTerms = re }
}

func WithActionTerms(re *regexp.Regexp) Option {
	return func(e *Engine) { e.actionTerms = re }
}

func WithHighValueKeywords(re *regexp.Regexp) Option {
	return func(e *Engine) { e.highValueKeywords = re }
}

func WithGreetings(words []string) Option {
	return func(e *Engine) { e.greetings = toSet(words) }
}

func WithEmptySummaryPhrases(phrases []string) Option {
	return func(e *Engine) { e.emptySummaryPhrases = phrases }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		eventTerms:          defaultEventTerms,
		actionTerms:         defaultActionTerms,
		forceHighLinks:      defaultForceHighLinks,
		forceHighKeywords:   defaultForceHighKeywords,
		highValueKeywords:   defaultHighValueKeywords,
		greetings:           toSet(defaultGreetings),
		emptySummaryPhrases: defaultEmptySummaryPhrases,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Boost raises importance when the text advertises an event: event plus
// action vocabulary forces high, event alone at least medium. The result is
// monotone, never below the model tier. Returns extra categories and tags
// for the caller to merge without duplicates.
func (e *Engine) Boost(text string, current domain.Importance) (domain.Importance, []string, []string) {
	hasEvent := e.eventTerms.MatchString(text)
	hasAction := e.actionTerms.MatchString(text)

	boosted := current

	switch {
	case hasEvent && hasAction:
		boosted = domain.MaxImportance(boosted, domain.ImportanceHigh)
	case hasEvent:
		boosted = domain.MaxImportance(boosted, domain.ImportanceMedium)
	}

	if !hasEvent {
		return boosted, nil, nil
	}

	return boosted, []string{boostCategory}, []string{boostTag}
}

// ForcesHigh reports whether the text carries a link that marks a
// time-sensitive opportunity (form signups, whitelist, presale, airdrop
// claims) regardless of the model tier.
func (e *Engine) ForcesHigh(text string) bool {
	return e.forceHighLinks.MatchString(text) || e.forceHighKeywords.MatchString(text)
}

// HasHighValueKeyword reports whether the text mentions an opportunity
// keyword. Unlike ForcesHigh it does not raise the tier; it only lets a
// below-threshold message through the admission gate.
func (e *Engine) HasHighValueKeyword(text string) bool {
	return e.highValueKeywords.MatchString(text)
}

// IsMeaningless reports whether the text carries no information worth
// relaying: greetings, emoji-only, punctuation-only, single-character
// acknowledgments.
func (e *Engine) IsMeaningless(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	normalized := strings.ToLower(strings.TrimRight(trimmed, "!.?~"))
	if _, ok := e.greetings[normalized]; ok {
		return true
	}

	runes := []rune(trimmed)
	if len(runes) == 1 {
		return true
	}

	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return false
		}
	}

	return true
}

// SummaryLacksSubstance reports whether the summary is one of the fixed
// "nothing to summarize" phrasings. A merely empty summary is not a veto;
// the card formatter falls back to the raw text.
func (e *Engine) SummaryLacksSubstance(summary string) bool {
	normalized := strings.ToLower(strings.TrimRight(strings.TrimSpace(summary), "."))

	for _, phrase := range e.emptySummaryPhrases {
		if normalized == phrase {
			return true
		}
	}

	return false
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}

	return set
}
