package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

func TestParseJudgment(t *testing.T) {
	content := `{
		"relevant": true,
		"valuable": true,
		"importance": "HIGH",
		"categories": ["Airdrop", "event", "bogus", "news", "trading"],
		"tags": ["zk", "testnet", "", "points"],
		"summary": "Project X opened an airdrop claim.",
		"monetization_note": "Claim before the snapshot.",
		"action_guide": "Connect wallet and claim.",
		"relevance_reason": "Crypto airdrop.",
		"value_reason": "Free tokens."
	}`

	j, err := parseJudgment(content)
	require.NoError(t, err)

	assert.True(t, j.Relevant)
	assert.True(t, j.Valuable)
	assert.Equal(t, domain.ImportanceHigh, j.Importance)
	assert.Equal(t, []string{"airdrop", "event", "news"}, j.Categories, "unknown categories dropped, capped at 3")
	assert.Equal(t, []string{"zk", "testnet", "points"}, j.Tags)
	assert.Equal(t, "Project X opened an airdrop claim.", j.Summary)
}

func TestParseJudgment_Malformed(t *testing.T) {
	for _, content := range []string{"", "not json", `{"relevant": "maybe"}`} {
		_, err := parseJudgment(content)
		assert.ErrorIs(t, err, ErrMalformedResponse, "content %q", content)
	}
}

func TestParseJudgment_UnknownImportanceDefaultsLow(t *testing.T) {
	j, err := parseJudgment(`{"relevant": true, "valuable": false, "importance": "critical"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportanceLow, j.Importance)
}

func TestParseJudgment_TagCap(t *testing.T) {
	tags := `["a","b","c","d","e","f","g","h","i"]`

	j, err := parseJudgment(`{"relevant":true,"valuable":true,"importance":"low","tags":` + tags + `}`)
	require.NoError(t, err)
	assert.Len(t, j.Tags, 7)
}

func TestTruncateChars(t *testing.T) {
	long := strings.Repeat("я", 6000) // 2 bytes per rune

	got := truncateChars(long, MaxClassifyChars)
	assert.LessOrEqual(t, len(got), MaxClassifyChars)
	assert.True(t, strings.HasSuffix(got, "я"), "must not split a rune")

	assert.Equal(t, "short", truncateChars("short", MaxClassifyChars))
}
