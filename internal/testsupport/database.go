package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yokie-karaoke/yokie-server/internal/database"
)

// WhatsNewDate is the whatsNewDate preference stored by SeedLibrary
const WhatsNewDate = "2024-01-01"

// MustOpenDB opens a migrated database in a temp directory and registers cleanup.
func MustOpenDB(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "yokie.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// MustExec runs seed statements, failing the test on the first error.
func MustExec(t testing.TB, db *database.DB, statements ...string) {
	t.Helper()

	for _, stmt := range statements {
		if _, err := db.Exec(context.Background(), stmt); err != nil {
			t.Fatalf("failed to seed %q: %v", stmt, err)
		}
	}
}

// SeedLibrary fills db with a small catalog:
//
//	songs    1 Foo Fighters/Everlong, 2 The Bar Band/Foo Bar Song (note),
//	         3 Foobar Collective/Intro, 4 Queen/Bohemian Rhapsody,
//	         5 Foo Bar/Zed
//	singers  1 Alice, 2 Bob
//	tags     1 Rock (songs 1, 3), 2 Duets (song 2)
//	queue    ordinal 1 youtube entry, 2 song 3, 3 youtube entry over song 1
//
// Preferences are inserted out of their conventional order.
func SeedLibrary(t testing.TB, db *database.DB) {
	t.Helper()

	MustExec(t, db,
		`INSERT INTO preferences (name, value) VALUES
			('siteEnabled', '1'),
			('lightness', '40'),
			('chatEnabled', '0'),
			('whatsNewDate', '`+WhatsNewDate+`'),
			('hue', '200'),
			('remoteAddEnabled', '1'),
			('saturation', '60')`,
		`INSERT INTO songs (id, artist, title, path, note, date_added, plays) VALUES
			(1, 'Foo Fighters', 'Everlong', 'foo/Everlong.cdg', '', '2024-01-10', 5),
			(2, 'The Bar Band', 'Foo Bar Song', 'bar/Foo Bar Song.cdg', 'Duet', '2024-03-01', 50),
			(3, 'Foobar Collective', 'Intro', 'foobar/Intro.cdg', '', '2023-12-01', 10),
			(4, 'Queen', 'Bohemian Rhapsody', 'queen/Bohemian Rhapsody.cdg', '', '2020-05-05', 100),
			(5, 'Foo Bar', 'Zed', 'foobar/Zed.cdg', '', '2024-02-15', 0)`,
		`INSERT INTO singers (id, name) VALUES (1, 'Alice'), (2, 'Bob')`,
		`INSERT INTO queue_log (singer_id, song_id, name, type, created) VALUES
			(1, 1, 'Alice', 'song', '2024-04-01 20:15:00'),
			(1, 1, 'Alice', 'song', '2024-04-08 21:00:00'),
			(1, 1, 'Alice', 'song', '2024-04-15 22:30:00'),
			(1, 3, 'Alice', 'song', '2024-04-15 23:00:00'),
			(2, 4, 'Bob', 'song', '2024-04-15 23:10:00')`,
		`INSERT INTO tags (id, name) VALUES (1, 'Rock'), (2, 'Duets')`,
		`INSERT INTO song_tags (song_id, tag_id) VALUES (1, 1), (3, 1), (2, 2)`,
		`INSERT INTO queue (id, ordinal, song_id, singer_id, name, youtube, custom_title, custom_path) VALUES
			(1, 2, 3, 1, 'Alice', 0, '', ''),
			(2, 1, NULL, 2, 'Bob', 1, 'Karaoke Video', 'https://www.youtube.com/watch?v=abc'),
			(3, 3, 1, 2, 'Bob', 1, 'Everlong (YouTube)', 'https://www.youtube.com/watch?v=xyz')`,
	)
}
