package database

import (
	"context"
	"fmt"
)

// ListQueue returns queue entries in play order with their song's artist,
// title and path joined in. Entries without a matching song are kept.
func (db *DB) ListQueue(ctx context.Context) ([]Row, error) {
	result, err := db.Query(ctx, `
		SELECT queue.*, songs.artist, songs.title, songs.path
		FROM queue
		LEFT JOIN songs ON queue.song_id = songs.id
		ORDER BY queue.ordinal ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	return result.Rows(), nil
}
