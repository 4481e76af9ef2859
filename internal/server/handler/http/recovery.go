// Package http provides the HTTP handlers for the selfcare recovery
// endpoints: document check, token validation, password change, and
// interactive login.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/movitel/selfcare/internal/document"
	"github.com/movitel/selfcare/internal/models"
	"github.com/movitel/selfcare/internal/service"
)

// RecoveryService defines the operations required by the handlers.
type RecoveryService interface {
	CheckDocument(ctx context.Context, doc string) (*models.DocumentCheckResponse, error)
	ValidateToken(ctx context.Context, doc, token string) error
	ChangePassword(ctx context.Context, doc, password string) error
	Login(ctx context.Context, doc, password string) (*models.Account, error)
}

// RecoveryHandler handles the recovery endpoints.
type RecoveryHandler struct {
	Service RecoveryService
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.APIError{Error: code, Message: message})
}

// CheckDocument handles the account lookup. The failure body carries
// the classification text the client pattern-matches on; not-found is
// also signalled with a 404 status.
func (h *RecoveryHandler) CheckDocument(w http.ResponseWriter, r *http.Request) {
	var req models.DocumentCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CPF == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if v := document.Validate(req.CPF); !v.Valid {
		writeJSON(w, http.StatusBadRequest, models.DocumentCheckResponse{
			Success:   false,
			Descricao: v.Err,
		})
		return
	}

	resp, err := h.Service.CheckDocument(r.Context(), document.OnlyDigits(req.CPF))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.DocumentCheckResponse{
			Success:   false,
			Descricao: "falha interna",
		})
		return
	}

	status := http.StatusOK
	if !resp.Success && resp.Descricao != "" && resp.Account == nil && resp.Detalhes == "" {
		status = http.StatusNotFound
	}
	writeJSON(w, status, resp)
}

// ValidateToken handles token submission. A lockout maps to 403; a
// wrong token to 400.
func (h *RecoveryHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CPF == "" || len(req.Token) != 6 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	err := h.Service.ValidateToken(r.Context(), document.OnlyDigits(req.CPF), req.Token)
	switch {
	case errors.Is(err, service.ErrLockedOut):
		writeAPIError(w, http.StatusForbidden, "locked", "excesso de tentativas, entre em contato com o suporte")
	case errors.Is(err, service.ErrInvalidToken):
		writeAPIError(w, http.StatusBadRequest, "invalid_token", "token inválido ou expirado")
	case err != nil:
		writeAPIError(w, http.StatusInternalServerError, "internal", "falha interna")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// ChangePassword handles the password update. The lockout contract
// matches ValidateToken.
func (h *RecoveryHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CPF == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		writeAPIError(w, http.StatusBadRequest, "weak_password", "a senha deve ter ao menos 6 caracteres")
		return
	}

	err := h.Service.ChangePassword(r.Context(), document.OnlyDigits(req.CPF), req.Password)
	switch {
	case errors.Is(err, service.ErrLockedOut):
		writeAPIError(w, http.StatusForbidden, "locked", "excesso de tentativas, entre em contato com o suporte")
	case errors.Is(err, service.ErrNoValidatedToken):
		writeAPIError(w, http.StatusBadRequest, "token_required", "valide o token antes de alterar a senha")
	case err != nil:
		writeAPIError(w, http.StatusInternalServerError, "internal", "falha interna")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Login handles the interactive document/password login.
func (h *RecoveryHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CPF == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	acct, err := h.Service.Login(r.Context(), document.OnlyDigits(req.CPF), req.Password)
	switch {
	case errors.Is(err, service.ErrBadCredentials):
		writeAPIError(w, http.StatusUnauthorized, "unauthorized", "credenciais inválidas")
	case err != nil:
		writeAPIError(w, http.StatusInternalServerError, "internal", "falha interna")
	default:
		writeJSON(w, http.StatusOK, models.LoginResponse{Status: "ok", Name: acct.Name})
	}
}
