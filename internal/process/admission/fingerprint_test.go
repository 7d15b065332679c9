package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims and collapses whitespace", in: "  hello   world \n", want: "hello world"},
		{name: "tabs and newlines", in: "a\t\tb\nc", want: "a b c"},
		{name: "empty", in: "   ", want: ""},
		{name: "nfc normalization", in: "café", want: "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash("hello   world")
	b := ContentHash("  hello world\n")
	c := ContentHash("hello worlds")

	assert.Equal(t, a, b, "whitespace variants hash identically")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
