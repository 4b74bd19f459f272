package transactions

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
	r.Route("/transactions", func(tr chi.Router) {
		tr.Post("/", createTransactionHandler(svc))
		tr.Get("/", listTransactionsHandler(svc))
		tr.Get("/{transactionID}", getTransactionHandler(svc))
		tr.Patch("/{transactionID}", updateTransactionHandler(svc))
		tr.Delete("/{transactionID}", deleteTransactionHandler(svc))
	})
}

type createTransactionRequest struct {
	Type            string  `json:"type"`
	TargetKind      string  `json:"target_kind"`
	TargetID        string  `json:"target_id"`
	ToUserID        *string `json:"to_user_id"`
	SourceFarmID    *string `json:"source_farm_id"`
	DestFarmID      *string `json:"dest_farm_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	TransactionDate string  `json:"transaction_date"` // RFC 3339 opcional
	Notes           string  `json:"notes"`
}

type updateTransactionRequest struct {
	Type            *string  `json:"type"`
	ToUserID        *string  `json:"to_user_id"`
	SourceFarmID    *string  `json:"source_farm_id"`
	DestFarmID      *string  `json:"dest_farm_id"`
	Amount          *float64 `json:"amount"`
	Currency        *string  `json:"currency"`
	TransactionDate *string  `json:"transaction_date"`
	Notes           *string  `json:"notes"`
}

type transactionResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	TargetKind      string    `json:"target_kind"`
	TargetID        string    `json:"target_id"`
	FromUserID      string    `json:"from_user_id"`
	ToUserID        *string   `json:"to_user_id,omitempty"`
	SourceFarmID    *string   `json:"source_farm_id,omitempty"`
	DestFarmID      *string   `json:"dest_farm_id,omitempty"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func createTransactionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var txDate time.Time
		if strings.TrimSpace(req.TransactionDate) != "" {
			t, err := time.Parse(time.RFC3339, req.TransactionDate)
			if err != nil {
				http.Error(w, "transaction_date must be RFC 3339", http.StatusBadRequest)
				return
			}
			txDate = t
		}

		t, err := svc.Create(r.Context(), actor(ident), CreateInput{
			Type:            TxType(strings.TrimSpace(req.Type)),
			Target:          Target{Kind: TargetKind(strings.TrimSpace(req.TargetKind)), ID: req.TargetID},
			ToUserID:        req.ToUserID,
			SourceFarmID:    req.SourceFarmID,
			DestFarmID:      req.DestFarmID,
			Amount:          req.Amount,
			Currency:        req.Currency,
			TransactionDate: txDate,
			Notes:           req.Notes,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTransactionResponse(t))
	}
}

func listTransactionsHandler(svc *Service) http.HandlerFunc {
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

		out := make([]transactionResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toTransactionResponse(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getTransactionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		t, err := svc.Get(r.Context(), actor(ident), chi.URLParam(r, "transactionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(t))
	}
}

func updateTransactionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateTransactionRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var txType *TxType
		if req.Type != nil {
			t := TxType(strings.TrimSpace(*req.Type))
			txType = &t
		}
		var txDate *time.Time
		if req.TransactionDate != nil {
			t, err := time.Parse(time.RFC3339, *req.TransactionDate)
			if err != nil {
				http.Error(w, "transaction_date must be RFC 3339", http.StatusBadRequest)
				return
			}
			txDate = &t
		}

		t, err := svc.Update(r.Context(), actor(ident), chi.URLParam(r, "transactionID"), UpdateInput{
			Type:            txType,
			ToUserID:        req.ToUserID,
			SourceFarmID:    req.SourceFarmID,
			DestFarmID:      req.DestFarmID,
			Amount:          req.Amount,
			Currency:        req.Currency,
			TransactionDate: txDate,
			Notes:           req.Notes,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(t))
	}
}

func deleteTransactionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := middleware.GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), actor(ident), chi.URLParam(r, "transactionID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func actor(ident auth.Identity) authz.User {
	return authz.User{ID: ident.UserID, IsActive: ident.IsActive, IsSuperuser: ident.IsSuperuser}
}

func toTransactionResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		Type:            string(t.Type),
		TargetKind:      string(t.Target.Kind),
		TargetID:        t.Target.ID,
		FromUserID:      t.FromUserID,
		ToUserID:        t.ToUserID,
		SourceFarmID:    t.SourceFarmID,
		DestFarmID:      t.DestFarmID,
		Amount:          t.Amount,
		Currency:        t.Currency,
		TransactionDate: t.TransactionDate,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
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
