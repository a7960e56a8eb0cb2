package handlers

import (
	"net/http"

	"github.com/yokie-karaoke/yokie-server/internal/apperr"
)

type searchRequest struct {
	Query string `json:"query"`
}

// Search runs a keyword search over song artists and titles: POST {root}/search
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.jsonError(w, r, apperr.Validation("", "Search query missing."))
		return
	}

	result, err := h.db.SearchSongs(r.Context(), req.Query)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{
		Message: "Search complete.",
		Result:  result,
		Total:   result.Len(),
	})
}
