package lots

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"finca-manager/internal/authz"
	"finca-manager/internal/middleware"
	"finca-manager/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/lots", func(lr chi.Router) {
		lr.Post("/", createLotHandler(svc))
		lr.Get("/{lotID}", getLotHandler(svc))
		lr.Patch("/{lotID}", updateLotHandler(svc))
		lr.Delete("/{lotID}", deleteLotHandler(svc))
	})

	r.Get("/farms/{farmID}/lots", listLotsByFarmHandler(svc))
}

type createLotRequest struct {
	FarmID      string `json:"farm_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateLotRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type lotResponse struct {
	ID          string    `json:"id"`
	FarmID      string    `json:"farm_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func createLotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createLotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		l, err := svc.Create(r.Context(), actor(ident), CreateInput{
			FarmID:      req.FarmID,
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toLotResponse(l))
	}
}

func getLotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		l, err := svc.Get(r.Context(), actor(ident), chi.URLParam(r, "lotID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLotResponse(l))
	}
}

func listLotsByFarmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByFarm(r.Context(), actor(ident), chi.URLParam(r, "farmID"))
		if err != nil {
			writeErr(w, err)
			return
		}

		out := make([]lotResponse, 0, len(items))
		for _, l := range items {
			out = append(out, toLotResponse(l))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateLotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateLotRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		l, err := svc.Update(r.Context(), actor(ident), chi.URLParam(r, "lotID"), UpdateInput{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLotResponse(l))
	}
}

func deleteLotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), actor(ident), chi.URLParam(r, "lotID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func actor(ident auth.Identity) authz.User {
	return authz.User{ID: ident.UserID, IsActive: ident.IsActive, IsSuperuser: ident.IsSuperuser}
}

func toLotResponse(l Lot) lotResponse {
	return lotResponse{
		ID:          l.ID,
		FarmID:      l.FarmID,
		Name:        l.Name,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
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
