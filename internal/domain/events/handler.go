package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"finca-manager/internal/authz"
	"finca-manager/internal/domain/events/details"
	"finca-manager/internal/middleware"
	"finca-manager/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/events", func(er chi.Router) {
		er.Post("/", createEventHandler(svc))
		er.Get("/", listEventsHandler(svc))
		er.Get("/{eventID}", getEventHandler(svc))
		er.Patch("/{eventID}", updateEventHandler(svc))
		er.Delete("/{eventID}", deleteEventHandler(svc))
	})
}

type createEventRequest struct {
	Kind      string   `json:"kind"`
	EventDate string   `json:"event_date"` // RFC 3339 opcional
	AnimalIDs []string `json:"animal_ids"`
	Notes     string   `json:"notes"`

	Health       *details.Health       `json:"health,omitempty"`
	Reproductive *details.Reproductive `json:"reproductive,omitempty"`
	Weighing     *details.Weighing     `json:"weighing,omitempty"`
	Feeding      *details.Feeding      `json:"feeding,omitempty"`
	Batch        *details.Batch        `json:"batch,omitempty"`
}

type updateEventRequest struct {
	EventDate *string  `json:"event_date"`
	AnimalIDs []string `json:"animal_ids"`
	Notes     *string  `json:"notes"`

	Health       *details.Health       `json:"health,omitempty"`
	Reproductive *details.Reproductive `json:"reproductive,omitempty"`
	Weighing     *details.Weighing     `json:"weighing,omitempty"`
	Feeding      *details.Feeding      `json:"feeding,omitempty"`
	Batch        *details.Batch        `json:"batch,omitempty"`
}

type eventResponse struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	EventDate        time.Time `json:"event_date"`
	RecordedByUserID string    `json:"recorded_by_user_id"`
	AnimalIDs        []string  `json:"animal_ids"`
	Notes            string    `json:"notes,omitempty"`

	Health       *details.Health       `json:"health,omitempty"`
	Reproductive *details.Reproductive `json:"reproductive,omitempty"`
	Weighing     *details.Weighing     `json:"weighing,omitempty"`
	Feeding      *details.Feeding      `json:"feeding,omitempty"`
	Batch        *details.Batch        `json:"batch,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func createEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var eventDate time.Time
		if strings.TrimSpace(req.EventDate) != "" {
			t, err := time.Parse(time.RFC3339, req.EventDate)
			if err != nil {
				http.Error(w, "event_date must be RFC 3339", http.StatusBadRequest)
				return
			}
			eventDate = t
		}

		e, err := svc.Create(r.Context(), actor(ident), CreateInput{
			Kind:         Kind(strings.TrimSpace(req.Kind)),
			EventDate:    eventDate,
			AnimalIDs:    req.AnimalIDs,
			Notes:        req.Notes,
			Health:       req.Health,
			Reproductive: req.Reproductive,
			Weighing:     req.Weighing,
			Feeding:      req.Feeding,
			Batch:        req.Batch,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventResponse(e))
	}
}

func listEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		items, err := svc.List(r.Context(), actor(ident), ListFilter{
			Kind:     Kind(strings.TrimSpace(q.Get("kind"))),
			AnimalID: strings.TrimSpace(q.Get("animal_id")),
		})
		if err != nil {
			writeErr(w, err)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		e, err := svc.Get(r.Context(), actor(ident), chi.URLParam(r, "eventID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

func updateEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateEventRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var eventDate *time.Time
		if req.EventDate != nil {
			t, err := time.Parse(time.RFC3339, *req.EventDate)
			if err != nil {
				http.Error(w, "event_date must be RFC 3339", http.StatusBadRequest)
				return
			}
			eventDate = &t
		}

		e, err := svc.Update(r.Context(), actor(ident), chi.URLParam(r, "eventID"), UpdateInput{
			EventDate:    eventDate,
			AnimalIDs:    req.AnimalIDs,
			Notes:        req.Notes,
			Health:       req.Health,
			Reproductive: req.Reproductive,
			Weighing:     req.Weighing,
			Feeding:      req.Feeding,
			Batch:        req.Batch,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

func deleteEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), actor(ident), chi.URLParam(r, "eventID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func actor(ident auth.Identity) authz.User {
	return authz.User{ID: ident.UserID, IsActive: ident.IsActive, IsSuperuser: ident.IsSuperuser}
}

func toEventResponse(e FarmEvent) eventResponse {
	return eventResponse{
		ID:               e.ID,
		Kind:             string(e.Kind),
		EventDate:        e.EventDate,
		RecordedByUserID: e.RecordedByUserID,
		AnimalIDs:        e.AnimalIDs,
		Notes:            e.Notes,
		Health:           e.Health,
		Reproductive:     e.Reproductive,
		Weighing:         e.Weighing,
		Feeding:          e.Feeding,
		Batch:            e.Batch,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, authz.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrAlreadyExists):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
