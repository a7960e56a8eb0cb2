package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/nullism/bqb"

	"github.com/yokie-karaoke/yokie-server/internal/apperr"
)

// searchColumns are matched independently; every keyword must appear in
// the same column for a song to match.
var searchColumns = []string{"artist", "title"}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards so keywords match literally
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SearchKeywords splits a search query into its whitespace-separated keywords
func SearchKeywords(query string) []string {
	return strings.Fields(query)
}

// BuildSongSearch composes the song search statement for query.
// Keywords are ANDed within a column and the columns are ORed together.
// Results rank artists starting with the query first, then whole-word
// matches, then any substring match.
func BuildSongSearch(query string) (string, []any, error) {
	keywords := SearchKeywords(query)
	if len(keywords) == 0 {
		return "", nil, apperr.Validation("", "Search query missing.")
	}

	where := bqb.Optional("WHERE")
	for _, column := range searchColumns {
		group := bqb.Optional("")
		for _, keyword := range keywords {
			group.And(column+` LIKE ? ESCAPE '\'`, "%"+escapeLike(keyword)+"%")
		}
		where.Or("(?)", group)
	}

	// alnum() output never contains LIKE wildcards
	normalized := strings.ToLower(Alnum(strings.Join(keywords, " ")))
	rank := bqb.New(`CASE WHEN alnum(artist) LIKE ? THEN 0
		WHEN alnum(artist) LIKE ? THEN 1
		WHEN alnum(artist) LIKE ? THEN 2
		WHEN alnum(artist) LIKE ? THEN 3
		ELSE 4 END`,
		normalized+"%",
		normalized+" %",
		"% "+normalized+" %",
		"%"+normalized+"%",
	)

	q := bqb.New("SELECT * FROM songs ? ORDER BY ?, title", where, rank)
	return q.ToSql()
}

// SearchSongs returns songs matching query, most relevant first
func (db *DB) SearchSongs(ctx context.Context, query string) (*Result, error) {
	statement, args, err := BuildSongSearch(query)
	if err != nil {
		return nil, err
	}

	result, err := db.Query(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}
	return result, nil
}
