package farms

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
	r.Route("/farms", func(fr chi.Router) {
		fr.Post("/", createFarmHandler(svc))
		fr.Get("/", listFarmsHandler(svc))
		fr.Get("/{farmID}", getFarmHandler(svc))
		fr.Patch("/{farmID}", updateFarmHandler(svc))
		fr.Delete("/{farmID}", deleteFarmHandler(svc))
	})
}

type farmRequest struct {
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	AreaHa      *float64 `json:"area_hectares"`
	ContactInfo string   `json:"contact_info"`
}

type updateFarmRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string  `json:"name"`
	Location    *string  `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	AreaHa      *float64 `json:"area_hectares"`
	ContactInfo *string  `json:"contact_info"`
}

type farmResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	AreaHa      *float64  `json:"area_hectares,omitempty"`
	OwnerUserID string    `json:"owner_user_id"`
	ContactInfo string    `json:"contact_info,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func createFarmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req farmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		f, err := svc.Create(r.Context(), actor(ident), CreateInput{
			Name:        req.Name,
			Location:    req.Location,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			AreaHa:      req.AreaHa,
			ContactInfo: req.ContactInfo,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFarmResponse(f))
	}
}

func listFarmsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var (
			items []Farm
			err   error
		)
		if r.URL.Query().Get("include") == "shared" {
			items, err = svc.ListAccessible(r.Context(), actor(ident))
		} else {
			items, err = svc.ListMine(r.Context(), actor(ident))
		}
		if err != nil {
			writeErr(w, err)
			return
		}

		out := make([]farmResponse, 0, len(items))
		for _, f := range items {
			out = append(out, toFarmResponse(f))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getFarmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		f, err := svc.Get(r.Context(), actor(ident), chi.URLParam(r, "farmID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFarmResponse(f))
	}
}

func updateFarmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateFarmRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		f, err := svc.Update(r.Context(), actor(ident), chi.URLParam(r, "farmID"), UpdateInput{
			Name:        req.Name,
			Location:    req.Location,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			AreaHa:      req.AreaHa,
			ContactInfo: req.ContactInfo,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFarmResponse(f))
	}
}

func deleteFarmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), actor(ident), chi.URLParam(r, "farmID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func actor(ident auth.Identity) authz.User {
	return authz.User{ID: ident.UserID, IsActive: ident.IsActive, IsSuperuser: ident.IsSuperuser}
}

func toFarmResponse(f Farm) farmResponse {
	return farmResponse{
		ID:          f.ID,
		Name:        f.Name,
		Location:    f.Location,
		Latitude:    f.Latitude,
		Longitude:   f.Longitude,
		AreaHa:      f.AreaHa,
		OwnerUserID: f.OwnerUserID,
		ContactInfo: f.ContactInfo,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyExists):
		http.Error(w, "conflict", http.StatusConflict)
	case errors.Is(err, authz.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
