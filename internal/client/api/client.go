// Package api is the typed HTTP client for the selfcare recovery
// endpoints. Responses are classified once at this boundary so
// downstream code never re-parses loosely-typed payloads.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/movitel/selfcare/internal/document"
	"github.com/movitel/selfcare/internal/models"
	"github.com/movitel/selfcare/internal/retry"
)

const (
	pathLogin    = "/api/login"
	pathDocument = "/api/recovery/document"
	pathToken    = "/api/recovery/token"
	pathPassword = "/api/recovery/password"
)

// Classification substrings. The backend exposes no machine-readable
// status for these cases, so matching stays on the response text,
// case-insensitively.
const (
	notFoundSignal   = "não encontrado"
	activeLineSignal = "linha ativa"
)

// StatusError is a non-2xx response. It keeps the HTTP status intact
// through the retry executor so lockout handling can see it.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// StatusCode implements retry.StatusCoder.
func (e *StatusError) StatusCode() int { return e.Status }

// IsLockout reports whether err is the HTTP 403 multiple-attempt
// lockout signal.
func IsLockout(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.Status == http.StatusForbidden
}

// DocumentCheckResult is the immutable outcome of one check attempt.
type DocumentCheckResult struct {
	FormatValid   bool
	ServerChecked bool
	HasAccount    bool
	HasActiveLine bool
	ErrorCode     int
	ErrorMessage  string
	// Account carries the payload of a successful lookup for signup
	// pre-fill.
	Account *models.Account
}

// Client talks to the recovery endpoints over a caller-supplied
// http.Client. Each call is independent; the client holds no mutable
// state.
type Client struct {
	http    *http.Client
	baseURL string
	policy  retry.Policy
	log     *zap.Logger
}

// New constructs a Client for baseURL using the default retry policy.
func New(httpClient *http.Client, baseURL string, log *zap.Logger) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  retry.Default(),
		log:     log,
	}
}

// WithPolicy overrides the retry policy for token, password, and
// login calls.
func (c *Client) WithPolicy(policy retry.Policy) *Client {
	c.policy = policy
	return c
}

// postJSON issues one POST and decodes a 2xx body into out. A non-2xx
// response decodes the failure body into a StatusError.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	}

	var apiErr models.APIError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	return &StatusError{Status: resp.StatusCode, Code: apiErr.Error, Message: apiErr.Message}
}

// CheckDocument validates raw locally and, when it passes, issues a
// single account lookup (never retried: classification depends on the
// response shape, not on transient failure). The result is always
// returned, never an error.
func (c *Client) CheckDocument(ctx context.Context, raw string, typ document.Type) DocumentCheckResult {
	digits := document.OnlyDigits(raw)

	expected := document.CPFLength
	if typ == document.TypeCNPJ {
		expected = document.CNPJLength
	}
	if len(digits) != expected {
		return DocumentCheckResult{ErrorMessage: formatMessage(typ)}
	}

	valid := document.IsValidCPF(digits)
	if typ == document.TypeCNPJ {
		valid = document.IsValidCNPJ(digits)
	}
	if !valid {
		return DocumentCheckResult{ErrorMessage: formatMessage(typ)}
	}

	resp, err := c.lookup(ctx, digits)
	if err != nil {
		// The server was never consulted, so ServerChecked stays false.
		c.log.Warn("document lookup failed", zap.Error(err))
		return DocumentCheckResult{
			FormatValid:  true,
			ErrorMessage: "não foi possível verificar o documento",
		}
	}
	return classify(resp)
}

func formatMessage(typ document.Type) string {
	if typ == document.TypeCNPJ {
		return "CNPJ inválido"
	}
	return "CPF inválido"
}

// lookup posts the document and decodes the response body whatever
// the status code: the failure shape under 404 still carries the
// classification text.
func (c *Client) lookup(ctx context.Context, digits string) (*models.DocumentCheckResponse, error) {
	body, err := json.Marshal(models.DocumentCheckRequest{CPF: digits})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathDocument, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out models.DocumentCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode lookup response (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

// classify maps the lookup response to exactly one of the four
// outcomes, tested in priority order: not-found, active-line,
// success, generic error.
func classify(resp *models.DocumentCheckResponse) DocumentCheckResult {
	descricao := strings.ToLower(resp.Descricao)
	detalhes := strings.ToLower(resp.Detalhes)

	switch {
	case strings.Contains(descricao, notFoundSignal):
		return DocumentCheckResult{FormatValid: true, ServerChecked: true}
	case strings.Contains(descricao, activeLineSignal) || strings.Contains(detalhes, activeLineSignal):
		return DocumentCheckResult{
			FormatValid:   true,
			ServerChecked: true,
			HasAccount:    true,
			HasActiveLine: true,
		}
	case resp.Success:
		return DocumentCheckResult{
			FormatValid:   true,
			ServerChecked: true,
			HasAccount:    true,
			Account:       resp.Account,
		}
	default:
		msg := resp.Descricao
		if msg == "" {
			msg = "não foi possível verificar o documento"
		}
		return DocumentCheckResult{
			FormatValid:   true,
			ServerChecked: true,
			ErrorCode:     resp.Codigo,
			ErrorMessage:  msg,
		}
	}
}

// ValidateToken submits the six-digit token for the identifier.
// Transport errors are retried under the client policy; any HTTP
// failure propagates unchanged, HTTP 403 meaning lockout.
func (c *Client) ValidateToken(ctx context.Context, identifier, token string) error {
	_, err := retry.Do(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.postJSON(ctx, pathToken, models.TokenRequest{CPF: identifier, Token: token}, nil)
	})
	return err
}

// ChangePassword submits the new password for the identifier. Same
// retry and lockout contract as ValidateToken.
func (c *Client) ChangePassword(ctx context.Context, identifier, password string) error {
	_, err := retry.Do(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.postJSON(ctx, pathPassword, models.PasswordRequest{CPF: identifier, Password: password}, nil)
	})
	return err
}

// Login authenticates the identifier/password pair interactively.
func (c *Client) Login(ctx context.Context, identifier, password string) (*models.LoginResponse, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (*models.LoginResponse, error) {
		var out models.LoginResponse
		if err := c.postJSON(ctx, pathLogin, models.LoginRequest{CPF: identifier, Password: password}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}
