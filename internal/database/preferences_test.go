package database_test

import (
	"context"
	"strings"
	"testing"

	"github.com/yokie-karaoke/yokie-server/internal/apperr"
	"github.com/yokie-karaoke/yokie-server/internal/database"
	"github.com/yokie-karaoke/yokie-server/internal/testsupport"
)

func TestGetPreferences_KeyedByName(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.SeedLibrary(t, db)

	prefs, err := db.GetPreferences(context.Background())
	if err != nil {
		t.Fatalf("GetPreferences returned error: %v", err)
	}

	want := map[string]string{
		database.PrefWhatsNewDate:     testsupport.WhatsNewDate,
		database.PrefHue:              "200",
		database.PrefSaturation:       "60",
		database.PrefLightness:        "40",
		database.PrefRemoteAddEnabled: "1",
		database.PrefChatEnabled:      "0",
		database.PrefSiteEnabled:      "1",
	}
	for name, value := range want {
		got, err := prefs.Get(name)
		if err != nil {
			t.Fatalf("Get(%q) returned error: %v", name, err)
		}
		if got != value {
			t.Fatalf("preference %s: expected %q, got %q", name, value, got)
		}
	}

	if _, err := prefs.Get("missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for missing preference, got %v", err)
	}
}

func TestGetPreference(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.SeedLibrary(t, db)
	ctx := context.Background()

	value, err := db.GetPreference(ctx, database.PrefWhatsNewDate)
	if err != nil {
		t.Fatalf("GetPreference returned error: %v", err)
	}
	if value != testsupport.WhatsNewDate {
		t.Fatalf("expected %s, got %q", testsupport.WhatsNewDate, value)
	}

	if _, err := db.GetPreference(ctx, "nope"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInitializeDefaults(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	ctx := context.Background()

	if err := db.ValidatePreferences(ctx); err == nil {
		t.Fatal("expected validation to fail on an empty preferences table")
	}

	seeded, err := db.InitializeDefaults(ctx)
	if err != nil {
		t.Fatalf("InitializeDefaults returned error: %v", err)
	}
	if len(seeded) != len(database.RequiredPreferences) {
		t.Fatalf("expected every preference to be reported as seeded, got %v", seeded)
	}
	if err := db.ValidatePreferences(ctx); err != nil {
		t.Fatalf("ValidatePreferences after seeding: %v", err)
	}

	prefs, err := db.GetPreferences(ctx)
	if err != nil {
		t.Fatalf("GetPreferences returned error: %v", err)
	}
	if len(prefs) != len(database.RequiredPreferences) {
		t.Fatalf("expected %d preferences, got %d", len(database.RequiredPreferences), len(prefs))
	}
	if prefs[database.PrefHue] != database.DefaultPreferences[database.PrefHue] {
		t.Fatalf("expected default hue, got %q", prefs[database.PrefHue])
	}
	if prefs[database.PrefWhatsNewDate] == "" {
		t.Fatal("expected whatsNewDate to be seeded")
	}
}

func TestInitializeDefaults_KeepsExistingValues(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.SeedLibrary(t, db)
	ctx := context.Background()

	seeded, err := db.InitializeDefaults(ctx)
	if err != nil {
		t.Fatalf("InitializeDefaults returned error: %v", err)
	}
	if len(seeded) != 0 {
		t.Fatalf("expected nothing seeded over a complete table, got %v", seeded)
	}

	value, err := db.GetPreference(ctx, database.PrefHue)
	if err != nil {
		t.Fatalf("GetPreference returned error: %v", err)
	}
	if value != "200" {
		t.Fatalf("expected stored hue to survive seeding, got %q", value)
	}
}

func TestInitializeDefaults_ReportsOnlyMissing(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.SeedLibrary(t, db)
	testsupport.MustExec(t, db, `DELETE FROM preferences WHERE name IN ('saturation', 'siteEnabled')`)
	ctx := context.Background()

	seeded, err := db.InitializeDefaults(ctx)
	if err != nil {
		t.Fatalf("InitializeDefaults returned error: %v", err)
	}
	if len(seeded) != 2 || seeded[0] != database.PrefSaturation || seeded[1] != database.PrefSiteEnabled {
		t.Fatalf("expected saturation and siteEnabled to be seeded, got %v", seeded)
	}
	if err := db.ValidatePreferences(ctx); err != nil {
		t.Fatalf("ValidatePreferences after seeding: %v", err)
	}
}

func TestValidatePreferences_ReportsMissing(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.SeedLibrary(t, db)
	testsupport.MustExec(t, db, `DELETE FROM preferences WHERE name IN ('hue', 'chatEnabled')`)

	err := db.ValidatePreferences(context.Background())
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "hue") || !strings.Contains(err.Error(), "chatEnabled") {
		t.Fatalf("expected missing names in error, got %v", err)
	}
}

func TestCountSongs(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	ctx := context.Background()

	total, err := db.CountSongs(ctx)
	if err != nil {
		t.Fatalf("CountSongs returned error: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected empty library, got %d", total)
	}

	testsupport.SeedLibrary(t, db)
	total, err = db.CountSongs(ctx)
	if err != nil {
		t.Fatalf("CountSongs returned error: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 songs, got %d", total)
	}
}

func TestListQueue_KeepsUnmatchedRowsInOrder(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.SeedLibrary(t, db)

	rows, err := db.ListQueue(context.Background())
	if err != nil {
		t.Fatalf("ListQueue returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 queue rows, got %d", len(rows))
	}

	order := []int64{2, 1, 3}
	for i, row := range rows {
		if row["id"] != order[i] {
			t.Fatalf("row %d: expected queue id %d, got %v", i, order[i], row["id"])
		}
	}

	if rows[0]["artist"] != nil || rows[0]["path"] != nil {
		t.Fatalf("expected no joined song for youtube entry, got %v", rows[0])
	}
	if rows[1].String("artist") != "Foobar Collective" || rows[1].String("path") != "foobar/Intro.cdg" {
		t.Fatalf("expected joined song metadata, got %v", rows[1])
	}
	if !rows[0].Bool("youtube") || rows[1].Bool("youtube") {
		t.Fatalf("unexpected youtube flags: %v / %v", rows[0]["youtube"], rows[1]["youtube"])
	}
}
