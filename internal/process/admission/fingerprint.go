package admission

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize normalizes text for fingerprinting: NFC form, trimmed, runs
// of whitespace collapsed to single spaces. Two visually identical posts
// with different Unicode compositions hash the same.
func Canonicalize(text string) string {
	normalized := norm.NFC.String(text)

	return strings.Join(strings.Fields(normalized), " ")
}

// ContentHash returns the hex sha256 of the canonicalized text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(Canonicalize(text)))

	return hex.EncodeToString(sum[:])
}
