package database

import (
	"context"
	"fmt"

	"github.com/yokie-karaoke/yokie-server/internal/apperr"
)

// FeedType names a server-selected song, singer or tag listing
type FeedType string

const (
	FeedSingers   FeedType = "singers"
	FeedSingerLog FeedType = "singer-log"
	FeedRandom    FeedType = "random"
	FeedNewest    FeedType = "newest"
	FeedPopular   FeedType = "popular"
	FeedSongTags  FeedType = "song-tags"
	FeedSearchTag FeedType = "search-tag"
	FeedTags      FeedType = "tags"
	FeedNotes     FeedType = "notes"
)

const (
	RandomFeedLimit  = 20
	PopularFeedLimit = 100
)

type feedDefinition struct {
	statement string
	message   string
	// needsID feeds bind the request id as their only argument
	needsID bool
}

var feedDefinitions = map[FeedType]feedDefinition{
	FeedSingers: {
		statement: `SELECT * FROM singers ORDER BY name ASC`,
		message:   "Singers loaded.",
	},
	FeedSingerLog: {
		statement: `SELECT queue_log.name, queue_log.type, songs.*, queue_log.created, COUNT(*) AS count
			FROM queue_log
			JOIN songs ON queue_log.song_id = songs.id
			WHERE queue_log.singer_id = ?
			GROUP BY queue_log.name, songs.title
			ORDER BY queue_log.singer_id ASC, count DESC`,
		message: "Singers loaded.",
		needsID: true,
	},
	FeedRandom: {
		statement: fmt.Sprintf(`SELECT * FROM songs ORDER BY RANDOM() LIMIT %d`, RandomFeedLimit),
		message:   "Random songs complete.",
	},
	FeedNewest: {
		statement: `SELECT * FROM songs WHERE date_added >= ? ORDER BY artist, title ASC`,
		message:   "New songs found.",
	},
	FeedPopular: {
		statement: fmt.Sprintf(`SELECT * FROM songs ORDER BY plays DESC LIMIT %d`, PopularFeedLimit),
		message:   "Popular songs found.",
	},
	FeedSongTags: {
		statement: `SELECT tag_id AS id, tag_name AS name FROM songs_merged WHERE songs_merged.id = ?`,
		message:   "Song tags loaded.",
		needsID:   true,
	},
	FeedSearchTag: {
		statement: `SELECT * FROM songs_merged WHERE tag_id = ? ORDER BY artist ASC`,
		message:   "Tag search complete.",
		needsID:   true,
	},
	FeedTags: {
		statement: `SELECT * FROM tags`,
		message:   "Tags loaded.",
	},
	FeedNotes: {
		statement: `SELECT * FROM songs WHERE note != '' ORDER BY artist, title ASC`,
		message:   "Songs with notes loaded.",
	},
}

// FeedTypes returns every known feed type
func FeedTypes() []FeedType {
	return []FeedType{
		FeedSingers, FeedSingerLog, FeedRandom, FeedNewest, FeedPopular,
		FeedSongTags, FeedSearchTag, FeedTags, FeedNotes,
	}
}

// ParseFeedType resolves a feed name. Unknown names return a NotFoundError.
func ParseFeedType(name string) (FeedType, error) {
	feed := FeedType(name)
	if _, ok := feedDefinitions[feed]; !ok {
		return "", apperr.NotFound("feed", fmt.Sprintf("unknown feed type: %s", name))
	}
	return feed, nil
}

// Message is the human-readable status returned with the feed
func (f FeedType) Message() string {
	return feedDefinitions[f].message
}

// RequiresID reports whether the feed is scoped to a singer, song or tag id
func (f FeedType) RequiresID() bool {
	return feedDefinitions[f].needsID
}

// Feed runs the named feed. id is required for feeds scoped to a singer,
// song or tag and ignored otherwise.
func (db *DB) Feed(ctx context.Context, feed FeedType, id *int64) (*Result, error) {
	def, ok := feedDefinitions[feed]
	if !ok {
		return nil, apperr.NotFound("feed", fmt.Sprintf("unknown feed type: %s", feed))
	}

	var args []any
	switch {
	case feed.RequiresID():
		if id == nil {
			return nil, apperr.Validation("id", "id is required")
		}
		args = append(args, *id)
	case feed == FeedNewest:
		since, err := db.GetPreference(ctx, PrefWhatsNewDate)
		if err != nil {
			return nil, err
		}
		if since == "" {
			return nil, apperr.NotFound("preference", fmt.Sprintf("preference %s is not set", PrefWhatsNewDate))
		}
		args = append(args, since)
	}

	result, err := db.Query(ctx, def.statement, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s feed: %w", feed, err)
	}
	return result, nil
}
