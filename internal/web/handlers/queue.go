package handlers

import (
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yokie-karaoke/yokie-server/internal/database"
)

// queueSong is the playable part of a queue entry
type queueSong struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Path   string `json:"path"`
}

type queueResponse struct {
	Result []database.Row `json:"result"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// QueueGet lists the play queue: GET {root}/queue/get
func (h *Handlers) QueueGet(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.ListQueue(r.Context())
	if err != nil {
		h.jsonError(w, r, err)
		return
	}

	items := make([]database.Row, 0, len(rows))
	for _, row := range rows {
		items = append(items, h.queueItem(r, row))
	}

	h.writeJSON(w, http.StatusOK, queueResponse{Result: items})
}

// queueItem attaches the song to play. YouTube entries carry their own
// title and link and drop the joined library columns.
func (h *Handlers) queueItem(r *http.Request, row database.Row) database.Row {
	item := make(database.Row, len(row)+1)
	for k, v := range row {
		item[k] = v
	}

	if row.Bool("youtube") {
		delete(item, "artist")
		delete(item, "title")
		delete(item, "path")
		item["song"] = queueSong{
			Title: row.String("custom_title"),
			Path:  row.String("custom_path"),
		}
		return item
	}

	item["song"] = queueSong{
		Artist: row.String("artist"),
		Title:  row.String("title"),
		Path:   h.cdgURL(r, row.String("path")),
	}
	return item
}

// cdgURL builds the playback link for a library file as seen by the requesting client
func (h *Handlers) cdgURL(r *http.Request, songPath string) string {
	host, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		host = r.Host
	}

	u := url.URL{
		Scheme: h.protocol,
		Host:   net.JoinHostPort(host, strconv.Itoa(h.port)),
		Path:   h.apiRoot + "/cdg/" + songPath,
	}
	return u.String()
}

// QueueAdd is reserved for queue mutation: GET {root}/queue/add
func (h *Handlers) QueueAdd(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// QueueRemove is reserved for queue mutation: GET {root}/queue/remove
func (h *Handlers) QueueRemove(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, okResponse{OK: true})
}
