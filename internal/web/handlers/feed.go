package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yokie-karaoke/yokie-server/internal/apperr"
	"github.com/yokie-karaoke/yokie-server/internal/database"
)

// flexibleID accepts a singer, song or tag id sent as a JSON number or a numeric string
type flexibleID struct {
	value *int64
}

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.value = nil
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return apperr.Validation("id", "id must be an integer")
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			f.value = nil
			return nil
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return apperr.Validation("id", "id must be an integer")
	}
	f.value = &id
	return nil
}

type feedRequest struct {
	ID flexibleID `json:"id"`
}

// Feed runs a server-selected listing: POST {root}/feed/{type}
func (h *Handlers) Feed(w http.ResponseWriter, r *http.Request) {
	feed, err := database.ParseFeedType(chi.URLParam(r, "type"))
	if err != nil {
		h.jsonError(w, r, err)
		return
	}

	var req feedRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}

	result, err := h.db.Feed(r.Context(), feed, req.ID.value)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{
		Message: feed.Message(),
		Result:  result,
		Total:   result.Len(),
	})
}
