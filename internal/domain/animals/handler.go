package animals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"finca-manager/internal/authz"
	"finca-manager/internal/middleware"
	"finca-manager/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/animals", func(ar chi.Router) {
		ar.Post("/", createAnimalHandler(svc))
		ar.Get("/", listAnimalsHandler(svc))
		ar.Get("/{animalID}", getAnimalHandler(svc))
		ar.Patch("/{animalID}", updateAnimalHandler(svc))
		ar.Put("/{animalID}/lot", moveAnimalHandler(svc))
		ar.Get("/{animalID}/locations", listLocationsHandler(svc))
		ar.Delete("/{animalID}", deleteAnimalHandler(svc))
	})
}

type createAnimalRequest struct {
	TagID          string  `json:"tag_id"`
	Name           string  `json:"name"`
	SpeciesID      *string `json:"species_id"`
	BreedID        *string `json:"breed_id"`
	Sex            string  `json:"sex"`
	DateOfBirth    string  `json:"date_of_birth"` // YYYY-MM-DD opcional
	Origin         string  `json:"origin"`
	MotherAnimalID *string `json:"mother_animal_id"`
	FatherAnimalID *string `json:"father_animal_id"`
	Description    string  `json:"description"`
	PhotoURL       string  `json:"photo_url"`
	CurrentLotID   *string `json:"current_lot_id"`
}

type updateAnimalRequest struct {
	Name        *string `json:"name"`
	SpeciesID   *string `json:"species_id"`
	BreedID     *string `json:"breed_id"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
	PhotoURL    *string `json:"photo_url"`
}

type moveAnimalRequest struct {
	LotID *string `json:"lot_id"` // null = sacar del lote
}

type animalResponse struct {
	ID             string     `json:"id"`
	TagID          string     `json:"tag_id"`
	Name           string     `json:"name,omitempty"`
	SpeciesID      *string    `json:"species_id,omitempty"`
	BreedID        *string    `json:"breed_id,omitempty"`
	Sex            string     `json:"sex"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Status         string     `json:"status"`
	Origin         string     `json:"origin"`
	OwnerUserID    string     `json:"owner_user_id"`
	MotherAnimalID *string    `json:"mother_animal_id,omitempty"`
	FatherAnimalID *string    `json:"father_animal_id,omitempty"`
	Description    string     `json:"description,omitempty"`
	PhotoURL       string     `json:"photo_url,omitempty"`
	CurrentLotID   *string    `json:"current_lot_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var dob *time.Time
		if strings.TrimSpace(req.DateOfBirth) != "" {
			t, err := time.Parse("2006-01-02", req.DateOfBirth)
			if err != nil {
				http.Error(w, "date_of_birth must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			dob = &t
		}

		a, err := svc.Create(r.Context(), actor(ident), CreateInput{
			TagID:          req.TagID,
			Name:           req.Name,
			SpeciesID:      req.SpeciesID,
			BreedID:        req.BreedID,
			Sex:            req.Sex,
			DateOfBirth:    dob,
			Origin:         req.Origin,
			MotherAnimalID: req.MotherAnimalID,
			FatherAnimalID: req.FatherAnimalID,
			Description:    req.Description,
			PhotoURL:       req.PhotoURL,
			CurrentLotID:   req.CurrentLotID,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			FarmID: strings.TrimSpace(q.Get("farm_id")),
			LotID:  strings.TrimSpace(q.Get("lot_id")),
			Status: Status(strings.TrimSpace(q.Get("status"))),
		}

		items, err := svc.List(r.Context(), actor(ident), filter)
		if err != nil {
			writeErr(w, err)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.Get(r.Context(), actor(ident), chi.URLParam(r, "animalID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateAnimalRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Update(r.Context(), actor(ident), chi.URLParam(r, "animalID"), UpdateInput{
			Name:        req.Name,
			SpeciesID:   req.SpeciesID,
			BreedID:     req.BreedID,
			Status:      req.Status,
			Description: req.Description,
			PhotoURL:    req.PhotoURL,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

func moveAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req moveAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.MoveToLot(r.Context(), actor(ident), chi.URLParam(r, "animalID"), req.LotID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

type locationResponse struct {
	ID       string     `json:"id"`
	FarmID   string     `json:"farm_id"`
	LotID    string     `json:"lot_id"`
	EntryAt  time.Time  `json:"entry_at"`
	ExitAt   *time.Time `json:"exit_at,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	AnimalID string     `json:"animal_id"`
}

func listLocationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		entries, err := svc.Locations(r.Context(), actor(ident), chi.URLParam(r, "animalID"))
		if err != nil {
			writeErr(w, err)
			return
		}

		out := make([]locationResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, locationResponse{
				ID:       e.ID,
				FarmID:   e.FarmID,
				LotID:    e.LotID,
				EntryAt:  e.EntryAt,
				ExitAt:   e.ExitAt,
				Reason:   e.Reason,
				AnimalID: e.AnimalID,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), actor(ident), chi.URLParam(r, "animalID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func actor(ident auth.Identity) authz.User {
	return authz.User{ID: ident.UserID, IsActive: ident.IsActive, IsSuperuser: ident.IsSuperuser}
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:             a.ID,
		TagID:          a.TagID,
		Name:           a.Name,
		SpeciesID:      a.SpeciesID,
		BreedID:        a.BreedID,
		Sex:            string(a.Sex),
		DateOfBirth:    a.DateOfBirth,
		Status:         string(a.Status),
		Origin:         string(a.Origin),
		OwnerUserID:    a.OwnerUserID,
		MotherAnimalID: a.MotherAnimalID,
		FatherAnimalID: a.FatherAnimalID,
		Description:    a.Description,
		PhotoURL:       a.PhotoURL,
		CurrentLotID:   a.CurrentLotID,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
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
