package grupos

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
	r.Route("/groups", func(gr chi.Router) {
		gr.Post("/", createGrupoHandler(svc))
		gr.Get("/", listGruposHandler(svc))
		gr.Get("/{groupID}", getGrupoHandler(svc))
		gr.Patch("/{groupID}", updateGrupoHandler(svc))
		gr.Delete("/{groupID}", deleteGrupoHandler(svc))

		gr.Get("/{groupID}/animals", listMembersHandler(svc))
		gr.Post("/{groupID}/animals", addMemberHandler(svc))
		gr.Delete("/{groupID}/animals/{animalID}", removeMemberHandler(svc))
	})
}

type createGrupoRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PurposeID   *string `json:"purpose_id"`
}

type updateGrupoRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PurposeID   *string `json:"purpose_id"`
}

type addMemberRequest struct {
	AnimalID string `json:"animal_id"`
	Notes    string `json:"notes"`
}

type grupoResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	PurposeID       *string   `json:"purpose_id,omitempty"`
	CreatedByUserID string    `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type memberResponse struct {
	AnimalID     string     `json:"animal_id"`
	GrupoID      string     `json:"group_id"`
	AssignedDate time.Time  `json:"assigned_date"`
	RemovedDate  *time.Time `json:"removed_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

func createGrupoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createGrupoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.Create(r.Context(), actor(ident), CreateInput{
			Name:        req.Name,
			Description: req.Description,
			PurposeID:   req.PurposeID,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGrupoResponse(g))
	}
}

func listGruposHandler(svc *Service) http.HandlerFunc {
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

		out := make([]grupoResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGrupoResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getGrupoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Get(r.Context(), actor(ident), chi.URLParam(r, "groupID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrupoResponse(g))
	}
}

func updateGrupoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateGrupoRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.Update(r.Context(), actor(ident), chi.URLParam(r, "groupID"), UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			PurposeID:   req.PurposeID,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGrupoResponse(g))
	}
}

func deleteGrupoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), actor(ident), chi.URLParam(r, "groupID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listMembersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListMembers(r.Context(), actor(ident), chi.URLParam(r, "groupID"))
		if err != nil {
			writeErr(w, err)
			return
		}

		out := make([]memberResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMemberResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func addMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req addMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.AddMember(r.Context(), actor(ident), chi.URLParam(r, "groupID"), AddMemberInput{
			AnimalID: req.AnimalID,
			Notes:    req.Notes,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMemberResponse(m))
	}
}

func removeMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		err := svc.RemoveMember(r.Context(), actor(ident), chi.URLParam(r, "groupID"), chi.URLParam(r, "animalID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func actor(ident auth.Identity) authz.User {
	return authz.User{ID: ident.UserID, IsActive: ident.IsActive, IsSuperuser: ident.IsSuperuser}
}

func toGrupoResponse(g Grupo) grupoResponse {
	return grupoResponse{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		PurposeID:       g.PurposeID,
		CreatedByUserID: g.CreatedByUserID,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

func toMemberResponse(m Member) memberResponse {
	return memberResponse{
		AnimalID:     m.AnimalID,
		GrupoID:      m.GrupoID,
		AssignedDate: m.AssignedDate,
		RemovedDate:  m.RemovedDate,
		Notes:        m.Notes,
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
