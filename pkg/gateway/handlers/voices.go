package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/tutor"
)

// VoicesHandler serves the selectable tutor voices; the same roster the live
// session advertises in its ready message.
type VoicesHandler struct {
	Catalog *tutor.Catalog
}

func (h VoicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type voicesResp struct {
		Voices []tutor.Voice `json:"voices"`
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(voicesResp{Voices: h.Catalog.Voices()})
}
