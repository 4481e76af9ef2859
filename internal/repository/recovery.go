// Package repository provides persistence implementations for the
// recovery service.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when no account matches a document.
var ErrNotFound = errors.New("account not found")

// AccountRecord is the stored account row.
type AccountRecord struct {
	Document     string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	LineActive   bool
}

// PostgresRecoveryRepository implements recovery persistence on
// PostgreSQL.
type PostgresRecoveryRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresRecoveryRepository creates a repository over db.
func NewPostgresRecoveryRepository(db *sql.DB) *PostgresRecoveryRepository {
	return &PostgresRecoveryRepository{DB: db}
}

// AccountByDocument fetches the account keyed by document, or
// ErrNotFound.
func (r *PostgresRecoveryRepository) AccountByDocument(ctx context.Context, doc string) (*AccountRecord, error) {
	var acct AccountRecord
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT document, name, COALESCE(email, ''), COALESCE(phone, ''), password_hash, line_active
		   FROM accounts WHERE document = $1`,
		doc,
	).Scan(&acct.Document, &acct.Name, &acct.Email, &acct.Phone, &acct.PasswordHash, &acct.LineActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// CreateToken stores a freshly issued recovery token.
func (r *PostgresRecoveryRepository) CreateToken(ctx context.Context, id, doc, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO recovery_tokens (id, document, token, expires_at) VALUES ($1, $2, $3, $4)`,
		id, doc, token, expiresAt,
	)
	return err
}

// ValidateToken marks the matching unexpired token as validated and
// reports whether one matched.
func (r *PostgresRecoveryRepository) ValidateToken(ctx context.Context, doc, token string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(
		ctx,
		`UPDATE recovery_tokens SET validated = TRUE
		  WHERE document = $1 AND token = $2 AND consumed = FALSE AND expires_at > $3`,
		doc, token, now,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// HasValidatedToken reports whether the document holds a validated,
// unconsumed, unexpired token.
func (r *PostgresRecoveryRepository) HasValidatedToken(ctx context.Context, doc string, now time.Time) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM recovery_tokens
		  WHERE document = $1 AND validated = TRUE AND consumed = FALSE AND expires_at > $2)`,
		doc, now,
	).Scan(&exists)
	return exists, err
}

// ConsumeTokens marks every token of the document consumed, ending
// the recovery session server-side.
func (r *PostgresRecoveryRepository) ConsumeTokens(ctx context.Context, doc string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`UPDATE recovery_tokens SET consumed = TRUE WHERE document = $1`,
		doc,
	)
	return err
}

// FailedAttempts returns the failure count for the document.
func (r *PostgresRecoveryRepository) FailedAttempts(ctx context.Context, doc string) (int, error) {
	var failures int
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT COALESCE((SELECT failures FROM recovery_attempts WHERE document = $1), 0)`,
		doc,
	).Scan(&failures)
	return failures, err
}

// RecordFailure increments the failure count for the document.
func (r *PostgresRecoveryRepository) RecordFailure(ctx context.Context, doc string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO recovery_attempts (document, failures) VALUES ($1, 1)
		 ON CONFLICT (document) DO UPDATE SET failures = recovery_attempts.failures + 1`,
		doc,
	)
	return err
}

// ResetFailures clears the failure count for the document.
func (r *PostgresRecoveryRepository) ResetFailures(ctx context.Context, doc string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`DELETE FROM recovery_attempts WHERE document = $1`,
		doc,
	)
	return err
}

// UpdatePassword replaces the stored password hash for the document.
func (r *PostgresRecoveryRepository) UpdatePassword(ctx context.Context, doc, hash string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`UPDATE accounts SET password_hash = $1 WHERE document = $2`,
		hash, doc,
	)
	return err
}
