package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

func TestBoost(t *testing.T) {
	e := New()

	tests := []struct {
		name     string
		text     string
		current  domain.Importance
		want     domain.Importance
		wantCats []string
		wantTags []string
	}{
		{
			name:     "event plus action forces high",
			text:     "Giveaway! RT and follow to enter",
			current:  domain.ImportanceLow,
			want:     domain.ImportanceHigh,
			wantCats: []string{"event"},
			wantTags: []string{"giveaway"},
		},
		{
			name:     "korean event plus action",
			text:     "스타벅스 기프티콘 이벤트, 댓글로 참여하세요",
			current:  domain.ImportanceLow,
			want:     domain.ImportanceHigh,
			wantCats: []string{"event"},
			wantTags: []string{"giveaway"},
		},
		{
			name:     "event alone raises to medium",
			text:     "airdrop season is coming",
			current:  domain.ImportanceLow,
			want:     domain.ImportanceMedium,
			wantCats: []string{"event"},
			wantTags: []string{"giveaway"},
		},
		{
			name:    "no event terms leaves tier alone",
			text:    "BTC closed the week above resistance",
			current: domain.ImportanceLow,
			want:    domain.ImportanceLow,
		},
		{
			name:     "never lowers high",
			text:     "airdrop mentioned in passing",
			current:  domain.ImportanceHigh,
			want:     domain.ImportanceHigh,
			wantCats: []string{"event"},
			wantTags: []string{"giveaway"},
		},
		{
			name:     "event alone keeps existing medium",
			text:     "raffle announced",
			current:  domain.ImportanceMedium,
			want:     domain.ImportanceMedium,
			wantCats: []string{"event"},
			wantTags: []string{"giveaway"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cats, tags := e.Boost(tt.text, tt.current)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCats, cats)
			assert.Equal(t, tt.wantTags, tags)
		})
	}
}

func TestForcesHigh(t *testing.T) {
	e := New()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "google form link", text: "sign up here https://forms.gle/abc123", want: true},
		{name: "docs google form", text: "https://docs.google.com/forms/d/e/xyz/viewform", want: true},
		{name: "whitelist link", text: "join https://project.io/whitelist now", want: true},
		{name: "airdrop claim link", text: "claim at https://drop.xyz/airdrop", want: true},
		{name: "plain link", text: "read https://example.com/blog", want: false},
		{name: "keyword without link", text: "whitelist opening soon", want: false},
		{name: "no links", text: "market looks choppy today", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ForcesHigh(tt.text))
		})
	}
}

func TestIsMeaningless(t *testing.T) {
	e := New()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "", want: true},
		{name: "whitespace", text: "   \n ", want: true},
		{name: "gm", text: "gm", want: true},
		{name: "gm with punctuation", text: "GM!!", want: true},
		{name: "korean greeting", text: "안녕하세요", want: true},
		{name: "emoji only", text: "🔥🔥🔥", want: true},
		{name: "punctuation only", text: "???", want: true},
		{name: "single char", text: "k", want: true},
		{name: "real sentence", text: "Token unlock scheduled for Friday", want: false},
		{name: "short but informative", text: "ETH ETF approved", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsMeaningless(tt.text))
		})
	}
}

func TestSummaryLacksSubstance(t *testing.T) {
	e := New()

	tests := []struct {
		name    string
		summary string
		want    bool
	}{
		{name: "empty summary is not a veto", summary: "", want: false},
		{name: "whitespace only is not a veto", summary: "   ", want: false},
		{name: "nothing to summarize", summary: "Nothing to summarize.", want: true},
		{name: "korean no content", summary: "요약할 내용이 없습니다", want: true},
		{name: "na", summary: "N/A", want: true},
		{name: "real summary", summary: "Project X opens claims on Friday.", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.SummaryLacksSubstance(tt.summary))
		})
	}
}

func TestHasHighValueKeyword(t *testing.T) {
	e := New()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "bare whitelist mention", text: "whitelist spots open for early supporters, details soon", want: true},
		{name: "presale without link", text: "presale allocation confirmed for stakers", want: true},
		{name: "korean whitelist", text: "화이트리스트 신청 오픈", want: true},
		{name: "claim", text: "claim opens at noon", want: true},
		{name: "keyword inside larger word", text: "disclaimer: not financial advice", want: false},
		{name: "plain market talk", text: "volume is thin across majors today", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.HasHighValueKeyword(tt.text))
		})
	}
}

func TestBoost_CustomVocabulary(t *testing.T) {
	e := New(WithGreetings([]string{"howdy"}))

	assert.True(t, e.IsMeaningless("howdy"))
	assert.False(t, e.IsMeaningless("gm and here is alpha"), "multi-word text never matches greetings")
}
