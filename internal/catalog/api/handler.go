package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ticketstore/internal/catalog"
)

type Handler struct {
	Catalog *catalog.Service
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Catalog.ListEvents(r.Context())
	if err != nil {
		http.Error(w, "Could not load events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

func (h *Handler) GetEventDetail(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	detail, err := h.Catalog.EventDetail(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, catalog.ErrEventNotFound) {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not load event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}
