package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/movitel/selfcare/internal/document"
	"github.com/movitel/selfcare/internal/models"
	"github.com/movitel/selfcare/internal/retry"
)

// noBackoff is the default predicate with the waits removed so retry
// paths run instantly in tests.
func noBackoff() retry.Policy {
	p := retry.Default()
	p.Backoff = func(int) time.Duration { return 0 }
	return p
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.Client(), srv.URL, zap.NewNop()).WithPolicy(noBackoff())
	return c, srv
}

func TestCheckDocument_InvalidFormatSkipsNetwork(t *testing.T) {
	hits := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hits++ })

	tests := []struct {
		name string
		raw  string
		typ  document.Type
	}{
		{"wrong length for cpf", "1234567", document.TypeCPF},
		{"bad check digit", "52998224726", document.TypeCPF},
		{"cpf length for cnpj type", "52998224725", document.TypeCNPJ},
		{"bad cnpj", "11222333000182", document.TypeCNPJ},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.CheckDocument(context.Background(), tt.raw, tt.typ)
			assert.False(t, got.FormatValid)
			assert.False(t, got.ServerChecked)
			assert.NotEmpty(t, got.ErrorMessage)
		})
	}
	assert.Equal(t, 0, hits, "local rejection must not reach the server")
}

func TestCheckDocument_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.DocumentCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "52998224725", req.CPF)
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(models.DocumentCheckResponse{
			Success:   false,
			Descricao: "CPF não encontrado",
		})
	})

	got := c.CheckDocument(context.Background(), "529.982.247-25", document.TypeCPF)
	want := DocumentCheckResult{FormatValid: true, ServerChecked: true}
	assert.Equal(t, want, got)
}

func TestCheckDocument_ActiveLine(t *testing.T) {
	// The signal may arrive in either field, any letter case.
	bodies := []models.DocumentCheckResponse{
		{Success: false, Descricao: "Cliente possui LINHA ATIVA"},
		{Success: false, Descricao: "operação não permitida", Detalhes: "Linha Ativa no documento"},
	}
	for _, body := range bodies {
		body := body
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(body)
		})
		got := c.CheckDocument(context.Background(), "52998224725", document.TypeCPF)
		assert.True(t, got.HasAccount)
		assert.True(t, got.HasActiveLine)
		assert.True(t, got.ServerChecked)
	}
}

func TestCheckDocument_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.DocumentCheckResponse{
			Success: true,
			Account: &models.Account{Document: "52998224725", Name: "Maria Silva", Email: "maria@example.com"},
		})
	})

	got := c.CheckDocument(context.Background(), "52998224725", document.TypeCPF)
	assert.True(t, got.HasAccount)
	assert.False(t, got.HasActiveLine)
	require.NotNil(t, got.Account)
	assert.Equal(t, "Maria Silva", got.Account.Name)
}

func TestCheckDocument_GenericErrorPreservesFields(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(models.DocumentCheckResponse{
			Success:   false,
			Descricao: "falha interna",
			Codigo:    42,
		})
	})

	got := c.CheckDocument(context.Background(), "52998224725", document.TypeCPF)
	assert.True(t, got.ServerChecked)
	assert.False(t, got.HasAccount)
	assert.Equal(t, 42, got.ErrorCode)
	assert.Equal(t, "falha interna", got.ErrorMessage)
}

func TestCheckDocument_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := New(srv.Client(), srv.URL, zap.NewNop())
	srv.Close()

	got := c.CheckDocument(context.Background(), "52998224725", document.TypeCPF)
	assert.True(t, got.FormatValid)
	assert.False(t, got.ServerChecked, "unreachable server cannot count as checked")
	assert.False(t, got.HasAccount)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestValidateToken_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "123456", req.Token)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.ValidateToken(context.Background(), "52998224725", "123456"))
}

func TestValidateToken_LockoutNotRetried(t *testing.T) {
	hits := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(models.APIError{Error: "locked", Message: "excesso de tentativas"})
	})

	err := c.ValidateToken(context.Background(), "52998224725", "000000")
	require.Error(t, err)
	assert.True(t, IsLockout(err))
	assert.Equal(t, 1, hits, "403 must fail fast, never retried")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Equal(t, "excesso de tentativas", se.Message)
}

func TestValidateToken_TransientHTTPErrorNotLockout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(models.APIError{Message: "token inválido"})
	})
	err := c.ValidateToken(context.Background(), "52998224725", "999999")
	require.Error(t, err)
	assert.False(t, IsLockout(err))
}

func TestChangePassword_Lockout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	err := c.ChangePassword(context.Background(), "52998224725", "newpass1")
	assert.True(t, IsLockout(err))
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(models.APIError{Message: "credenciais inválidas"})
			return
		}
		_ = json.NewEncoder(w).Encode(models.LoginResponse{Status: "ok", Name: "Maria"})
	})

	resp, err := c.Login(context.Background(), "52998224725", "right")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	_, err = c.Login(context.Background(), "52998224725", "wrong")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}

func TestStatusError_Error(t *testing.T) {
	e := &StatusError{Status: 403, Message: "bloqueado"}
	assert.Contains(t, e.Error(), "403")
	assert.Contains(t, e.Error(), "bloqueado")
	if !errors.As(error(e), new(*StatusError)) {
		t.Error("StatusError should be matchable with errors.As")
	}
}
