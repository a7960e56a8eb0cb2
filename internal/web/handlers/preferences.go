package handlers

import (
	"net/http"

	"github.com/yokie-karaoke/yokie-server/internal/database"
)

type preferencesPayload struct {
	WhatsNewDate     string `json:"whatsNewDate"`
	Hue              string `json:"hue"`
	Saturation       string `json:"saturation"`
	Lightness        string `json:"lightness"`
	RemoteAddEnabled string `json:"remoteAddEnabled"`
	ChatEnabled      string `json:"chatEnabled"`
	SiteEnabled      string `json:"siteEnabled"`
	TotalSongs       int64  `json:"totalSongs"`
}

type preferencesResponse struct {
	Status      string             `json:"status"`
	Message     string             `json:"message"`
	Preferences preferencesPayload `json:"preferences"`
}

// Preferences returns the site preferences and library size: GET {root}/feed/preferences
func (h *Handlers) Preferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	prefs, err := h.db.GetPreferences(ctx)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}

	var payload preferencesPayload
	fields := map[string]*string{
		database.PrefWhatsNewDate:     &payload.WhatsNewDate,
		database.PrefHue:              &payload.Hue,
		database.PrefSaturation:       &payload.Saturation,
		database.PrefLightness:        &payload.Lightness,
		database.PrefRemoteAddEnabled: &payload.RemoteAddEnabled,
		database.PrefChatEnabled:      &payload.ChatEnabled,
		database.PrefSiteEnabled:      &payload.SiteEnabled,
	}
	for name, dst := range fields {
		value, err := prefs.Get(name)
		if err != nil {
			h.jsonError(w, r, err)
			return
		}
		*dst = value
	}

	payload.TotalSongs, err = h.db.CountSongs(ctx)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, preferencesResponse{
		Status:      "ok",
		Message:     "Preferences loaded.",
		Preferences: payload,
	})
}
