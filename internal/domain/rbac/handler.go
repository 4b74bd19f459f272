package rbac

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
	r.Route("/rbac", func(rr chi.Router) {
		rr.Post("/modules", createModuleHandler(svc))
		rr.Get("/modules", listModulesHandler(svc))
		rr.Delete("/modules/{moduleID}", deleteModuleHandler(svc))

		rr.Post("/permissions", createPermissionHandler(svc))
		rr.Get("/permissions", listPermissionsHandler(svc))
		rr.Delete("/permissions/{permissionID}", deletePermissionHandler(svc))

		rr.Post("/roles", createRoleHandler(svc))
		rr.Get("/roles", listRolesHandler(svc))
		rr.Delete("/roles/{roleID}", deleteRoleHandler(svc))

		rr.Get("/roles/{roleID}/permissions", listRolePermissionsHandler(svc))
		rr.Put("/roles/{roleID}/permissions/{permissionID}", assignPermissionHandler(svc))
		rr.Delete("/roles/{roleID}/permissions/{permissionID}", revokePermissionHandler(svc))

		rr.Get("/users/{userID}/roles", listUserRolesHandler(svc))
		rr.Put("/users/{userID}/roles/{roleID}", assignRoleHandler(svc))
		rr.Delete("/users/{userID}/roles/{roleID}", revokeRoleHandler(svc))
	})
}

type createNamedRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ModuleID    string `json:"module_id,omitempty"` // solo permisos
}

type moduleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type permissionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ModuleID    string    `json:"module_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type roleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func createModuleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req createNamedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		m, err := svc.CreateModule(r.Context(), actor(ident), req.Name, req.Description)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, moduleResponse(m))
	}
}

func listModulesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListModules(r.Context(), actor(ident))
		if err != nil {
			writeErr(w, err)
			return
		}
		out := make([]moduleResponse, 0, len(items))
		for _, m := range items {
			out = append(out, moduleResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteModuleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.DeleteModule(r.Context(), actor(ident), chi.URLParam(r, "moduleID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createPermissionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req createNamedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		p, err := svc.CreatePermission(r.Context(), actor(ident), req.Name, req.Description, req.ModuleID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, permissionResponse(p))
	}
}

func listPermissionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListPermissions(r.Context(), actor(ident), r.URL.Query().Get("module_id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		out := make([]permissionResponse, 0, len(items))
		for _, p := range items {
			out = append(out, permissionResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deletePermissionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.DeletePermission(r.Context(), actor(ident), chi.URLParam(r, "permissionID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req createNamedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		role, err := svc.CreateRole(r.Context(), actor(ident), req.Name, req.Description)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, roleResponse(role))
	}
}

func listRolesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListRoles(r.Context(), actor(ident))
		if err != nil {
			writeErr(w, err)
			return
		}
		out := make([]roleResponse, 0, len(items))
		for _, role := range items {
			out = append(out, roleResponse(role))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.DeleteRole(r.Context(), actor(ident), chi.URLParam(r, "roleID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listRolePermissionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListRolePermissions(r.Context(), actor(ident), chi.URLParam(r, "roleID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		out := make([]permissionResponse, 0, len(items))
		for _, p := range items {
			out = append(out, permissionResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func assignPermissionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		err := svc.AssignPermission(r.Context(), actor(ident), chi.URLParam(r, "roleID"), chi.URLParam(r, "permissionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func revokePermissionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		err := svc.RevokePermission(r.Context(), actor(ident), chi.URLParam(r, "roleID"), chi.URLParam(r, "permissionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listUserRolesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListUserRoles(r.Context(), actor(ident), chi.URLParam(r, "userID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		out := make([]roleResponse, 0, len(items))
		for _, role := range items {
			out = append(out, roleResponse(role))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func assignRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		err := svc.AssignRole(r.Context(), actor(ident), chi.URLParam(r, "userID"), chi.URLParam(r, "roleID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func revokeRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		err := svc.RevokeRole(r.Context(), actor(ident), chi.URLParam(r, "userID"), chi.URLParam(r, "roleID"))
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
