package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetWatermark returns the highest processed message id for a channel,
// 0 when the channel has never been polled.
func (db *DB) GetWatermark(ctx context.Context, channelID int64) (int64, error) {
	var lastID int64

	err := db.Pool.QueryRow(ctx, `
		SELECT last_message_id FROM watermarks WHERE channel_id = $1
	`, channelID).Scan(&lastID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("get watermark: %w", err)
	}

	return lastID, nil
}

// SetWatermark records the highest processed message id for a channel.
func (db *DB) SetWatermark(ctx context.Context, channelID, messageID int64) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO watermarks (channel_id, last_message_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (channel_id) DO UPDATE
		SET last_message_id = EXCLUDED.last_message_id, updated_at = now()
	`, channelID, messageID)
	if err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}

	return nil
}
