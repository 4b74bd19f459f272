package farmaccess

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
	r.Route("/farm-access", func(ar chi.Router) {
		ar.Post("/", grantHandler(svc))
		ar.Get("/me", listMineHandler(svc))
		ar.Get("/{farmID}/{userID}", getGrantHandler(svc))
		ar.Patch("/{farmID}/{userID}", updateGrantHandler(svc))
		ar.Post("/{farmID}/{userID}/revoke", revokeHandler(svc))
		ar.Delete("/{farmID}/{userID}", hardDeleteHandler(svc))
	})

	r.Get("/farms/{farmID}/access", listByFarmHandler(svc))
}

type grantRequest struct {
	UserID    string     `json:"user_id"`
	FarmID    string     `json:"farm_id"`
	Level     string     `json:"access_level"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type updateGrantRequest struct {
	Level     *string    `json:"access_level"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type grantResponse struct {
	UserID           string     `json:"user_id"`
	FarmID           string     `json:"farm_id"`
	Level            string     `json:"access_level"`
	AssignedByUserID string     `json:"assigned_by_user_id"`
	AssignedAt       time.Time  `json:"assigned_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
}

func grantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req grantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.Grant(r.Context(), actor(ident), GrantInput{
			UserID:    req.UserID,
			FarmID:    req.FarmID,
			Level:     Level(req.Level),
			ExpiresAt: req.ExpiresAt,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

func getGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Get(r.Context(), actor(ident), chi.URLParam(r, "userID"), chi.URLParam(r, "farmID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func updateGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateGrantRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var level *Level
		if req.Level != nil {
			l := Level(*req.Level)
			level = &l
		}

		g, err := svc.Update(r.Context(), actor(ident), chi.URLParam(r, "userID"), chi.URLParam(r, "farmID"), UpdateInput{
			Level:     level,
			ExpiresAt: req.ExpiresAt,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func revokeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Revoke(r.Context(), actor(ident), chi.URLParam(r, "userID"), chi.URLParam(r, "farmID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func hardDeleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.HardDelete(r.Context(), actor(ident), chi.URLParam(r, "userID"), chi.URLParam(r, "farmID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListMine(r.Context(), actor(ident))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeGrantList(w, items)
	}
}

func listByFarmHandler(svc *Service) http.HandlerFunc {
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
		writeGrantList(w, items)
	}
}

func writeGrantList(w http.ResponseWriter, items []Grant) {
	out := make([]grantResponse, 0, len(items))
	for _, g := range items {
		out = append(out, toGrantResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func actor(ident auth.Identity) authz.User {
	return authz.User{ID: ident.UserID, IsActive: ident.IsActive, IsSuperuser: ident.IsSuperuser}
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		UserID:           g.UserID,
		FarmID:           g.FarmID,
		Level:            string(g.Level),
		AssignedByUserID: g.AssignedByUserID,
		AssignedAt:       g.AssignedAt,
		ExpiresAt:        g.ExpiresAt,
		RevokedAt:        g.RevokedAt,
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
