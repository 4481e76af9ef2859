// Package service implements the recovery business logic, delegating
// persistence to a RecoveryRepository.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/movitel/selfcare/internal/document"
	"github.com/movitel/selfcare/internal/models"
	"github.com/movitel/selfcare/internal/repository"
)

// maxFailures is the failed-attempt threshold after which the
// document is locked out of the recovery flow.
const maxFailures = 3

var (
	// ErrLockedOut signals the multiple-attempt lockout; handlers map
	// it to HTTP 403.
	ErrLockedOut = errors.New("too many failed attempts")
	// ErrInvalidToken signals a wrong, expired, or consumed token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNoValidatedToken signals a password change without a prior
	// successful token validation.
	ErrNoValidatedToken = errors.New("no validated token for document")
	// ErrBadCredentials signals a failed interactive login.
	ErrBadCredentials = errors.New("invalid credentials")
)

// RecoveryRepository defines the persistence operations required by
// the recovery service.
type RecoveryRepository interface {
	AccountByDocument(ctx context.Context, doc string) (*repository.AccountRecord, error)
	CreateToken(ctx context.Context, id, doc, token string, expiresAt time.Time) error
	ValidateToken(ctx context.Context, doc, token string, now time.Time) (bool, error)
	HasValidatedToken(ctx context.Context, doc string, now time.Time) (bool, error)
	ConsumeTokens(ctx context.Context, doc string) error
	FailedAttempts(ctx context.Context, doc string) (int, error)
	RecordFailure(ctx context.Context, doc string) error
	ResetFailures(ctx context.Context, doc string) error
	UpdatePassword(ctx context.Context, doc, hash string) error
}

// RecoveryService implements the document-check, token, password, and
// login operations.
type RecoveryService struct {
	repo     RecoveryRepository
	tokenTTL time.Duration
	log      *zap.Logger
	// now is injectable for tests.
	now func() time.Time
}

// NewRecoveryService constructs a RecoveryService. tokenTTL bounds
// the lifetime of issued recovery tokens.
func NewRecoveryService(repo RecoveryRepository, tokenTTL time.Duration, log *zap.Logger) *RecoveryService {
	return &RecoveryService{repo: repo, tokenTTL: tokenTTL, log: log, now: time.Now}
}

func documentLabel(doc string) string {
	if len(doc) == document.CNPJLength {
		return "CNPJ"
	}
	return "CPF"
}

// CheckDocument classifies the document and, on the recoverable path,
// issues a one-time token. The human-readable descricao/detalhes
// fields carry the classification the client matches on.
func (s *RecoveryService) CheckDocument(ctx context.Context, doc string) (*models.DocumentCheckResponse, error) {
	acct, err := s.repo.AccountByDocument(ctx, doc)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.DocumentCheckResponse{
			Success:   false,
			Descricao: fmt.Sprintf("%s não encontrado", documentLabel(doc)),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if acct.LineActive {
		return &models.DocumentCheckResponse{
			Success:   false,
			Descricao: "Operação não permitida",
			Detalhes:  "Cliente já possui linha ativa",
		}, nil
	}

	if err := s.issueToken(ctx, doc); err != nil {
		return nil, err
	}
	return &models.DocumentCheckResponse{
		Success: true,
		Account: &models.Account{
			Document: acct.Document,
			Name:     acct.Name,
			Email:    acct.Email,
			Phone:    acct.Phone,
		},
	}, nil
}

// issueToken generates and stores a six-digit token. Delivery is out
// of band; here the token is logged in place of the SMS gateway.
func (s *RecoveryService) issueToken(ctx context.Context, doc string) error {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	token := fmt.Sprintf("%06d", n.Int64())
	expires := s.now().Add(s.tokenTTL)
	if err := s.repo.CreateToken(ctx, uuid.NewString(), doc, token, expires); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	s.log.Info("recovery token issued",
		zap.String("document", doc),
		zap.String("token", token),
		zap.Time("expires_at", expires))
	return nil
}

// checkLockout returns ErrLockedOut once the document crossed the
// failure threshold.
func (s *RecoveryService) checkLockout(ctx context.Context, doc string) error {
	failures, err := s.repo.FailedAttempts(ctx, doc)
	if err != nil {
		return err
	}
	if failures >= maxFailures {
		return ErrLockedOut
	}
	return nil
}

// ValidateToken checks the submitted token. Every miss counts toward
// the lockout threshold.
func (s *RecoveryService) ValidateToken(ctx context.Context, doc, token string) error {
	if err := s.checkLockout(ctx, doc); err != nil {
		return err
	}
	ok, err := s.repo.ValidateToken(ctx, doc, token, s.now())
	if err != nil {
		return err
	}
	if !ok {
		if err := s.repo.RecordFailure(ctx, doc); err != nil {
			s.log.Error("record failed attempt", zap.Error(err))
		}
		return ErrInvalidToken
	}
	return nil
}

// ChangePassword replaces the account password. It requires a
// previously validated token, consumes the session's tokens, and
// resets the failure counter on success.
func (s *RecoveryService) ChangePassword(ctx context.Context, doc, password string) error {
	if err := s.checkLockout(ctx, doc); err != nil {
		return err
	}
	validated, err := s.repo.HasValidatedToken(ctx, doc, s.now())
	if err != nil {
		return err
	}
	if !validated {
		if err := s.repo.RecordFailure(ctx, doc); err != nil {
			s.log.Error("record failed attempt", zap.Error(err))
		}
		return ErrNoValidatedToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, doc, string(hash)); err != nil {
		return err
	}
	if err := s.repo.ConsumeTokens(ctx, doc); err != nil {
		s.log.Error("consume tokens", zap.Error(err))
	}
	if err := s.repo.ResetFailures(ctx, doc); err != nil {
		s.log.Error("reset failures", zap.Error(err))
	}
	s.log.Info("password changed", zap.String("document", doc))
	return nil
}

// Login verifies the document/password pair.
func (s *RecoveryService) Login(ctx context.Context, doc, password string) (*models.Account, error) {
	acct, err := s.repo.AccountByDocument(ctx, doc)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &models.Account{
		Document: acct.Document,
		Name:     acct.Name,
		Email:    acct.Email,
		Phone:    acct.Phone,
	}, nil
}
