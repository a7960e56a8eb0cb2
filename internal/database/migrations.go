package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Migrate runs all database migrations
func (db *DB) Migrate(ctx context.Context) error {
	log.Info().Msg("Running database migrations")

	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err = db.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	log.Debug().Int("current_version", currentVersion).Msg("Current schema version")

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		log.Info().Int("version", migration.Version).Str("name", migration.Name).Msg("Applying migration")

		if err := db.Transaction(ctx, func(tx *sql.Tx) error {
			statements := splitSQLStatements(migration.SQL)
			for i, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d statement %d failed: %w", migration.Version, i+1, err)
				}
			}

			if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
			}

			return nil
		}); err != nil {
			return err
		}
	}

	log.Info().Msg("Database migrations complete")
	return nil
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

// splitSQLStatements splits a SQL string into individual statements.
// Comment lines are dropped and only non-empty statements are returned.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	for line := range strings.SplitSeq(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			-- Site-wide preferences, looked up by name
			CREATE TABLE preferences (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				value TEXT NOT NULL DEFAULT ''
			);

			-- Song library
			CREATE TABLE songs (
				id INTEGER PRIMARY KEY,
				artist TEXT NOT NULL DEFAULT '',
				title TEXT NOT NULL DEFAULT '',
				path TEXT NOT NULL DEFAULT '',
				note TEXT NOT NULL DEFAULT '',
				date_added DATE,
				plays INTEGER NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_songs_artist_title ON songs(artist, title);
			CREATE INDEX idx_songs_date_added ON songs(date_added);
			CREATE INDEX idx_songs_plays ON songs(plays);

			CREATE TABLE singers (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL
			);

			-- Every performance, kept for per-singer history
			CREATE TABLE queue_log (
				id INTEGER PRIMARY KEY,
				singer_id INTEGER REFERENCES singers(id) ON DELETE CASCADE,
				song_id INTEGER REFERENCES songs(id) ON DELETE CASCADE,
				name TEXT NOT NULL DEFAULT '',
				type TEXT NOT NULL DEFAULT '',
				created DATETIME DEFAULT CURRENT_TIMESTAMP
			);

			CREATE INDEX idx_queue_log_singer ON queue_log(singer_id);

			-- Upcoming performances; youtube rows carry their own title/path
			CREATE TABLE queue (
				id INTEGER PRIMARY KEY,
				ordinal INTEGER NOT NULL DEFAULT 0,
				song_id INTEGER REFERENCES songs(id) ON DELETE SET NULL,
				singer_id INTEGER REFERENCES singers(id) ON DELETE SET NULL,
				name TEXT NOT NULL DEFAULT '',
				youtube INTEGER NOT NULL DEFAULT 0,
				custom_title TEXT NOT NULL DEFAULT '',
				custom_path TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_queue_ordinal ON queue(ordinal);

			CREATE TABLE tags (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL UNIQUE
			);

			CREATE TABLE song_tags (
				song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
				tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (song_id, tag_id)
			);
		`,
	},
	{
		Version: 2,
		Name:    "songs_merged_view",
		SQL: `
			CREATE VIEW songs_merged AS
			SELECT songs.*, tags.id AS tag_id, tags.name AS tag_name
			FROM songs
			JOIN song_tags ON song_tags.song_id = songs.id
			JOIN tags ON tags.id = song_tags.tag_id;
		`,
	},
}
