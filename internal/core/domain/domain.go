// Package domain holds the core types shared across the relay pipeline.
package domain

import (
	"fmt"
	"time"
)

// Message is a raw inbound message as delivered by the transport adapter.
// ForwardProvenance is populated once at the adapter boundary; the rest of
// the pipeline never inspects transport-library internals.
type Message struct {
	ChannelID int64
	MessageID int64
	Date      time.Time
	Text      string
	HasMedia  bool
	MediaData []byte
	Forward   *ForwardProvenance
}

// Identity returns the persistence identity of the message. A forwarded
// message dedups and links against its origin, not its forwarding copy.
func (m *Message) Identity() Identity {
	if m.Forward != nil {
		return Identity{ChannelID: m.Forward.OriginChannelID, MessageID: m.Forward.OriginMessageID}
	}

	return Identity{ChannelID: m.ChannelID, MessageID: m.MessageID}
}

// ForwardProvenance describes the origin of a forwarded message.
type ForwardProvenance struct {
	OriginChannelID int64
	OriginMessageID int64
	OriginTitle     string
	OriginUsername  string
}

// Identity is the unique key of a persisted message record.
type Identity struct {
	ChannelID int64
	MessageID int64
}

func (id Identity) String() string {
	return fmt.Sprintf("%d/%d", id.ChannelID, id.MessageID)
}

// ChannelMeta is cached metadata about a monitored channel, used to build
// origin links and titles. Rebuilt from the transport on start and on miss.
type ChannelMeta struct {
	ID         int64
	AccessHash int64
	Title      string
	Username   string
	IsPublic   bool
	Broadcast  bool
}

// OriginLink builds a deep link to a message in this channel.
func (c ChannelMeta) OriginLink(messageID int64) string {
	if c.IsPublic && c.Username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", c.Username, messageID)
	}

	if c.ID != 0 {
		return fmt.Sprintf("https://t.me/c/%d/%d", c.ID, messageID)
	}

	return ""
}

// Record is one row per admitted (fingerprinted) message. Classification
// stays nil until the classification stage completes, and is updated exactly
// once afterwards.
type Record struct {
	Identity       Identity
	CapturedAt     time.Time
	RawText        string
	ContentHash    string
	Embedding      []float32 // nil when the embedding service was unavailable
	Classification *Judgment
	OriginLink     string
	DispatchedAt   *time.Time
}

// Judgment is the structured output of the classification stage, after
// rule-based boosting has been applied on top of the model tier.
type Judgment struct {
	Relevant         bool
	Valuable         bool
	Importance       Importance
	Categories       []string // closed vocabulary, at most 3
	Tags             []string // free-form, at most 7
	Summary          string
	MonetizationNote string
	ActionGuide      string
	RelevanceReason  string
	ValueReason      string
}
