package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var errNotInitialized = errors.New("database not initialized")

// Optimize refreshes query planner statistics for the song and queue indexes
func (db *DB) Optimize(ctx context.Context) error {
	return db.maintain(ctx, "optimize", "PRAGMA optimize")
}

// Vacuum rebuilds the database file, reclaiming space left by deleted rows
func (db *DB) Vacuum(ctx context.Context) error {
	return db.maintain(ctx, "vacuum", "VACUUM")
}

// maintain runs a maintenance statement while holding the write lock
func (db *DB) maintain(ctx context.Context, op, statement string) error {
	if db == nil || db.conn == nil {
		return errNotInitialized
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	if _, err := db.Exec(ctx, statement); err != nil {
		return fmt.Errorf("failed to %s database: %w", op, err)
	}

	log.Debug().Str("op", op).Dur("duration", time.Since(start)).Msg("Database maintenance complete")
	return nil
}
