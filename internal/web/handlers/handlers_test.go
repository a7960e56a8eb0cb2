package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokie-karaoke/yokie-server/internal/database"
	"github.com/yokie-karaoke/yokie-server/internal/testsupport"
)

const testRoot = "/api/yokie"

func newTestHandlers(t *testing.T) (*Handlers, *database.DB) {
	t.Helper()
	db := testsupport.MustOpenDB(t)
	testsupport.SeedLibrary(t, db)

	h := New(db, Options{Protocol: "http", Port: 3000, APIRoot: testRoot, Version: "test"})
	return h, db
}

func newTestRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.Get("/", h.Banner)
	r.Route(testRoot, func(r chi.Router) {
		r.Get("/feed/preferences", h.Preferences)
		r.Post("/feed/{type}", h.Feed)
		r.Post("/search", h.Search)
		r.Get("/queue/get", h.QueueGet)
		r.Get("/queue/add", h.QueueAdd)
		r.Get("/queue/remove", h.QueueRemove)
	})
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func ids(t *testing.T, result any) []float64 {
	t.Helper()
	rows, ok := result.([]any)
	require.True(t, ok, "expected list result, got %T", result)

	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.(map[string]any)["id"].(float64))
	}
	return out
}

func TestBanner(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, _ := do(t, newTestRouter(h), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Yokie Server test", rec.Body.String())
}

func TestFeed_ListEnvelope(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/feed/singers", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Singers loaded.", body["message"])
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, []float64{1, 2}, ids(t, body["result"]))
}

func TestFeed_SingleRowIsObject(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/feed/song-tags", `{"id": 1}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Song tags loaded.", body["message"])
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, map[string]any{"id": float64(1), "name": "Rock"}, body["result"])
}

func TestFeed_IDAsString(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/feed/song-tags", `{"id": "2"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"id": float64(2), "name": "Duets"}, body["result"])
}

func TestFeed_SearchTag(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/feed/search-tag", `{"id": 1}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tag search complete.", body["message"])
	assert.Equal(t, []float64{1, 3}, ids(t, body["result"]))
}

func TestFeed_NoMatchesIsEmptyList(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/feed/search-tag", `{"id": 99}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["result"])
	assert.Equal(t, float64(0), body["total"])
}

func TestFeed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{name: "unknown type", path: "/feed/bogus", status: http.StatusNotFound, kind: "not_found"},
		{name: "missing id", path: "/feed/singer-log", body: `{}`, status: http.StatusBadRequest, kind: "validation"},
		{name: "empty body for id feed", path: "/feed/song-tags", status: http.StatusBadRequest, kind: "validation"},
		{name: "non numeric id", path: "/feed/song-tags", body: `{"id": "abc"}`, status: http.StatusBadRequest, kind: "validation"},
		{name: "fractional id", path: "/feed/song-tags", body: `{"id": 1.5}`, status: http.StatusBadRequest, kind: "validation"},
		{name: "malformed json", path: "/feed/singers", body: `{"id":`, status: http.StatusBadRequest, kind: "validation"},
	}

	h, _ := newTestHandlers(t)
	router := newTestRouter(h)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, router, http.MethodPost, testRoot+tt.path, tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestFeed_UnknownTypeMessage(t *testing.T) {
	h, _ := newTestHandlers(t)
	_, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/feed/bogus", "")

	assert.Equal(t, "unknown feed type: bogus", body["error"])
}

func TestFeed_DatabaseErrorHidesDetail(t *testing.T) {
	h, db := newTestHandlers(t)
	require.NoError(t, db.Close())

	rec, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/feed/singers", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "database", body["kind"])
	assert.Equal(t, "Database error", body["error"])
}

func TestSearch(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/search", `{"query": "foo bar"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Search complete.", body["message"])
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, []float64{5, 2, 3}, ids(t, body["result"]))
}

func TestSearch_WildcardsAreLiteral(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodPost, testRoot+"/search", `{"query": "%"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["total"])
}

func TestSearch_MissingQuery(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := newTestRouter(h)

	for _, payload := range []string{"", `{}`, `{"query": "   "}`, `not json`} {
		rec, body := do(t, router, http.MethodPost, testRoot+"/search", payload)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "payload %q", payload)
		assert.Equal(t, "Search query missing.", body["error"], "payload %q", payload)
	}
}

func TestPreferences(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodGet, testRoot+"/feed/preferences", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Preferences loaded.", body["message"])
	assert.Equal(t, map[string]any{
		"whatsNewDate":     testsupport.WhatsNewDate,
		"hue":              "200",
		"saturation":       "60",
		"lightness":        "40",
		"remoteAddEnabled": "1",
		"chatEnabled":      "0",
		"siteEnabled":      "1",
		"totalSongs":       float64(5),
	}, body["preferences"])
}

func TestPreferences_MissingKey(t *testing.T) {
	h, db := newTestHandlers(t)
	testsupport.MustExec(t, db, `DELETE FROM preferences WHERE name = 'lightness'`)

	rec, body := do(t, newTestRouter(h), http.MethodGet, testRoot+"/feed/preferences", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["kind"])
	assert.Contains(t, body["error"], "lightness")
}

func TestQueueGet(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodGet, testRoot+"/queue/get", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{2, 1, 3}, ids(t, body["result"]))

	items := body["result"].([]any)

	external := items[0].(map[string]any)
	assert.NotContains(t, external, "artist")
	assert.NotContains(t, external, "title")
	assert.NotContains(t, external, "path")
	assert.Equal(t, map[string]any{
		"artist": "",
		"title":  "Karaoke Video",
		"path":   "https://www.youtube.com/watch?v=abc",
	}, external["song"])

	library := items[1].(map[string]any)
	assert.Equal(t, map[string]any{
		"artist": "Foobar Collective",
		"title":  "Intro",
		"path":   "http://example.com:3000/api/yokie/cdg/foobar/Intro.cdg",
	}, library["song"])

	// a YouTube entry that also matches a library song keeps its own title
	overlay := items[2].(map[string]any)
	assert.NotContains(t, overlay, "artist")
	assert.Equal(t, "Everlong (YouTube)", overlay["song"].(map[string]any)["title"])
}

func TestQueueGet_EmptyQueueIsList(t *testing.T) {
	h, db := newTestHandlers(t)
	testsupport.MustExec(t, db, `DELETE FROM queue`)

	rec, body := do(t, newTestRouter(h), http.MethodGet, testRoot+"/queue/get", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["result"])
}

func TestQueueGet_SingleEntryIsList(t *testing.T) {
	h, db := newTestHandlers(t)
	testsupport.MustExec(t, db, `DELETE FROM queue WHERE id <> 1`)

	_, body := do(t, newTestRouter(h), http.MethodGet, testRoot+"/queue/get", "")

	assert.Equal(t, []float64{1}, ids(t, body["result"]))
}

func TestQueueStubs(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := newTestRouter(h)

	for _, path := range []string{"/queue/add", "/queue/remove"} {
		rec, body := do(t, router, http.MethodGet, testRoot+path, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"ok": true}, body)
	}
}

func TestCDGURL(t *testing.T) {
	h := New(nil, Options{Protocol: "https", Port: 8443, APIRoot: testRoot})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "karaoke.local:3000"

	assert.Equal(t,
		"https://karaoke.local:8443/api/yokie/cdg/bar/Foo%20Bar%20Song.cdg",
		h.cdgURL(req, "bar/Foo Bar Song.cdg"))

	req.Host = "karaoke.local"
	assert.Equal(t, "https://karaoke.local:8443/api/yokie/cdg/x.cdg", h.cdgURL(req, "x.cdg"))
}

func TestFlexibleID(t *testing.T) {
	tests := []struct {
		in      string
		want    *int64
		wantErr bool
	}{
		{in: `7`, want: ptr(7)},
		{in: `"42"`, want: ptr(42)},
		{in: `" 9 "`, want: ptr(9)},
		{in: `null`},
		{in: `""`},
		{in: `"x"`, wantErr: true},
		{in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		var id flexibleID
		err := id.UnmarshalJSON([]byte(tt.in))
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, id.value, tt.in)
	}
}

func ptr(v int64) *int64 { return &v }

func TestNotFoundRoute(t *testing.T) {
	h, _ := newTestHandlers(t)
	rec, body := do(t, newTestRouter(h), http.MethodGet, "/nowhere", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["kind"])
}
