package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

// SimilarMatch is the best similarity hit within the recency window.
type SimilarMatch struct {
	Identity   domain.Identity
	Similarity float32
}

// InsertIfAbsent persists a record, returning false when a row with the same
// identity already exists. Classification columns of an existing row are
// never touched.
func (db *DB) InsertIfAbsent(ctx context.Context, rec *domain.Record) (bool, error) {
	var embedding any
	if len(rec.Embedding) > 0 {
		embedding = pgvector.NewVector(rec.Embedding)
	}

	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO messages (channel_id, message_id, captured_at, raw_text, content_hash, embedding, origin_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (channel_id, message_id) DO NOTHING
	`, rec.Identity.ChannelID, rec.Identity.MessageID, rec.CapturedAt,
		sanitizeUTF8(rec.RawText), rec.ContentHash, embedding, toText(rec.OriginLink))
	if err != nil {
		return false, fmt.Errorf("insert message: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// FindExactDuplicate returns the most recent message inside the window with
// the same content hash, or nil when there is none.
func (db *DB) FindExactDuplicate(ctx context.Context, hash string, since time.Time) (*domain.Identity, error) {
	var id domain.Identity

	err := db.Pool.QueryRow(ctx, `
		SELECT channel_id, message_id
		FROM messages
		WHERE content_hash = $1
		  AND captured_at >= $2
		ORDER BY captured_at DESC
		LIMIT 1
	`, hash, since).Scan(&id.ChannelID, &id.MessageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil means no duplicate found
		}

		return nil, fmt.Errorf("find exact duplicate: %w", err)
	}

	return &id, nil
}

// FindSimilar scans the most recent scanLimit embedded rows inside the window
// and returns the highest-similarity match at or above the threshold, ties
// broken by recency. Rows with a NULL embedding never participate.
func (db *DB) FindSimilar(ctx context.Context, embedding []float32, since time.Time, threshold float32, scanLimit int) (*SimilarMatch, error) {
	if len(embedding) == 0 {
		return nil, nil //nolint:nilnil // no embedding means no similarity search possible
	}

	var match SimilarMatch

	vec := pgvector.NewVector(embedding)

	err := db.Pool.QueryRow(ctx, `
		SELECT channel_id, message_id, 1 - (embedding <=> $1::vector) AS similarity
		FROM (
			SELECT channel_id, message_id, embedding, captured_at
			FROM messages
			WHERE captured_at >= $2
			  AND embedding IS NOT NULL
			ORDER BY captured_at DESC
			LIMIT $3
		) recent
		WHERE 1 - (embedding <=> $1::vector) >= $4
		ORDER BY similarity DESC, captured_at DESC
		LIMIT 1
	`, vec, since, scanLimit, threshold).Scan(&match.Identity.ChannelID, &match.Identity.MessageID, &match.Similarity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil means nothing similar in the window
		}

		return nil, fmt.Errorf("find similar message: %w", err)
	}

	return &match, nil
}

// UpdateClassification writes the judgment columns for a persisted record.
// Overwrites on repeat so a re-run converges on the latest verdict.
func (db *DB) UpdateClassification(ctx context.Context, id domain.Identity, j *domain.Judgment, originLink string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE messages
		SET importance = $3,
		    categories = $4,
		    tags = $5,
		    summary = $6,
		    monetization_note = $7,
		    action_guide = $8,
		    relevant = $9,
		    valuable = $10,
		    origin_link = COALESCE(NULLIF($11, ''), origin_link)
		WHERE channel_id = $1 AND message_id = $2
	`, id.ChannelID, id.MessageID,
		string(j.Importance), j.Categories, j.Tags,
		toText(j.Summary), toText(j.MonetizationNote), toText(j.ActionGuide),
		j.Relevant, j.Valuable, originLink)
	if err != nil {
		return fmt.Errorf("update classification: %w", err)
	}

	return nil
}

// MarkDispatched stamps the record after a successful primary delivery.
func (db *DB) MarkDispatched(ctx context.Context, id domain.Identity) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE messages SET dispatched_at = now()
		WHERE channel_id = $1 AND message_id = $2
	`, id.ChannelID, id.MessageID)
	if err != nil {
		return fmt.Errorf("mark dispatched: %w", err)
	}

	return nil
}

// GetRecord loads a persisted record, nil when absent. Used by the operator
// tooling and tests; the hot path never reads full rows back.
func (db *DB) GetRecord(ctx context.Context, id domain.Identity) (*domain.Record, error) {
	rec := domain.Record{Identity: id}

	var (
		importance       pgtype.Text
		summary          pgtype.Text
		monetizationNote pgtype.Text
		actionGuide      pgtype.Text
		originLink       pgtype.Text
		relevant         pgtype.Bool
		valuable         pgtype.Bool
		dispatchedAt     pgtype.Timestamptz
		categories       []string
		tags             []string
	)

	err := db.Pool.QueryRow(ctx, `
		SELECT captured_at, raw_text, content_hash,
		       importance, categories, tags, summary, monetization_note, action_guide,
		       relevant, valuable, origin_link, dispatched_at
		FROM messages
		WHERE channel_id = $1 AND message_id = $2
	`, id.ChannelID, id.MessageID).Scan(
		&rec.CapturedAt, &rec.RawText, &rec.ContentHash,
		&importance, &categories, &tags, &summary, &monetizationNote, &actionGuide,
		&relevant, &valuable, &originLink, &dispatchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil means record not found
		}

		return nil, fmt.Errorf("get record: %w", err)
	}

	rec.OriginLink = fromText(originLink)
	rec.DispatchedAt = fromTimestamptzPtr(dispatchedAt)

	if importance.Valid {
		rec.Classification = &domain.Judgment{
			Relevant:         relevant.Bool,
			Valuable:         valuable.Bool,
			Importance:       domain.ParseImportance(importance.String),
			Categories:       categories,
			Tags:             tags,
			Summary:          fromText(summary),
			MonetizationNote: fromText(monetizationNote),
			ActionGuide:      fromText(actionGuide),
		}
	}

	return &rec, nil
}
