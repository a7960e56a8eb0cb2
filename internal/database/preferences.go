package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yokie-karaoke/yokie-server/internal/apperr"
)

// Preference names
const (
	PrefWhatsNewDate     = "whatsNewDate"
	PrefHue              = "hue"
	PrefSaturation       = "saturation"
	PrefLightness        = "lightness"
	PrefRemoteAddEnabled = "remoteAddEnabled"
	PrefChatEnabled      = "chatEnabled"
	PrefSiteEnabled      = "siteEnabled"
)

// RequiredPreferences lists the preferences every deployment must define
var RequiredPreferences = []string{
	PrefWhatsNewDate,
	PrefHue,
	PrefSaturation,
	PrefLightness,
	PrefRemoteAddEnabled,
	PrefChatEnabled,
	PrefSiteEnabled,
}

// DefaultPreferences are seeded when a preference is missing.
// whatsNewDate is filled in with the seeding date.
var DefaultPreferences = map[string]string{
	PrefHue:              "210",
	PrefSaturation:       "50",
	PrefLightness:        "50",
	PrefRemoteAddEnabled: "1",
	PrefChatEnabled:      "1",
	PrefSiteEnabled:      "1",
}

// Preferences maps preference name to its stored value
type Preferences map[string]string

// Get returns the named preference or a NotFoundError
func (p Preferences) Get(name string) (string, error) {
	value, ok := p[name]
	if !ok {
		return "", apperr.NotFound("preference", fmt.Sprintf("preference %s is not set", name))
	}
	return value, nil
}

// GetPreferences loads every preference keyed by name
func (db *DB) GetPreferences(ctx context.Context) (Preferences, error) {
	result, err := db.Query(ctx, `SELECT name, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	prefs := make(Preferences, result.Len())
	for _, row := range result.Rows() {
		prefs[row.String("name")] = row.String("value")
	}
	return prefs, nil
}

// GetPreference retrieves a single preference value by name
func (db *DB) GetPreference(ctx context.Context, name string) (string, error) {
	row, err := db.QueryOne(ctx, "preference "+name, `SELECT value FROM preferences WHERE name = ?`, name)
	if err != nil {
		return "", err
	}
	return row.String("value"), nil
}

// InitializeDefaults seeds any required preference that is not yet stored
// and returns the names it filled in. Stored values are never replaced.
func (db *DB) InitializeDefaults(ctx context.Context) ([]string, error) {
	var seeded []string
	for _, name := range RequiredPreferences {
		value, ok := DefaultPreferences[name]
		if name == PrefWhatsNewDate {
			value, ok = time.Now().Format(calendarDate), true
		}
		if !ok {
			continue
		}

		result, err := db.Exec(ctx, `INSERT OR IGNORE INTO preferences (name, value) VALUES (?, ?)`, name, value)
		if err != nil {
			return seeded, fmt.Errorf("failed to seed preference %s: %w", name, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			log.Warn().Str("name", name).Str("value", value).Msg("Preference missing; stored default")
			seeded = append(seeded, name)
		}
	}
	return seeded, nil
}

// ValidatePreferences checks that every required preference is stored
func (db *DB) ValidatePreferences(ctx context.Context) error {
	prefs, err := db.GetPreferences(ctx)
	if err != nil {
		return err
	}

	var missing []string
	for _, name := range RequiredPreferences {
		if _, ok := prefs[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required preferences: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CountSongs returns the number of songs in the library
func (db *DB) CountSongs(ctx context.Context) (int64, error) {
	row, err := db.QueryOne(ctx, "song count", `SELECT COUNT(*) AS total FROM songs`)
	if err != nil {
		return 0, err
	}

	total, ok := row["total"].(int64)
	if !ok {
		return 0, apperr.Database("count songs", fmt.Errorf("unexpected total type %T", row["total"]))
	}
	return total, nil
}
