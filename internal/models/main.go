// Package models defines the wire types shared between the selfcare
// client and the recovery endpoints.
package models

// Account carries the account payload returned by a successful
// document lookup, used downstream for signup pre-fill.
type Account struct {
	// Document is the unmasked CPF or CNPJ the account is keyed by.
	Document string `json:"document"`
	// Name is the holder's registered name.
	Name string `json:"name"`
	// Email is the contact address the recovery token is sent to.
	Email string `json:"email,omitempty"`
	// Phone is the line number on file, if any.
	Phone string `json:"phone,omitempty"`
}

// DocumentCheckRequest is the lookup payload. The CNPJ path reuses the
// same field with 14 digits.
type DocumentCheckRequest struct {
	CPF string `json:"cpf"`
}

// DocumentCheckResponse is the lookup result. On failure Descricao and
// Detalhes carry the human-readable classification text.
type DocumentCheckResponse struct {
	Success   bool     `json:"success"`
	Account   *Account `json:"account,omitempty"`
	Descricao string   `json:"descricao,omitempty"`
	Detalhes  string   `json:"detalhes,omitempty"`
	Codigo    int      `json:"codigo,omitempty"`
}

// TokenRequest submits a one-time token for the given document.
type TokenRequest struct {
	CPF   string `json:"cpf"`
	Token string `json:"token"`
}

// PasswordRequest submits a new password for the given document.
type PasswordRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// LoginRequest authenticates a document/password pair.
type LoginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// LoginResponse acknowledges a successful login.
type LoginResponse struct {
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}

// APIError is the failure body of the token and password endpoints.
type APIError struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
