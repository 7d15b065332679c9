package domain

import "strings"

// Importance is the classification tier of a message.
type Importance string

// Importance tiers, ordered low < medium < high.
const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// Rank returns the ordinal position of the tier. Unknown values rank as low.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 2
	case ImportanceMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether i is at or above the given tier.
func (i Importance) AtLeast(other Importance) bool {
	return i.Rank() >= other.Rank()
}

// ParseImportance normalizes a tier string, defaulting to low on unknown input.
func ParseImportance(s string) Importance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ImportanceHigh):
		return ImportanceHigh
	case string(ImportanceMedium):
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}

// MaxImportance returns the higher of two tiers.
func MaxImportance(a, b Importance) Importance {
	if b.Rank() > a.Rank() {
		return b
	}

	return a
}
