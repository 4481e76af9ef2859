// Package recovery drives the account-recovery flow: identity entry,
// one-time-token validation, and password change. The machine is
// constructed fresh per recovery session and injected into the
// screens that read it; there is no ambient global instance.
package recovery

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/movitel/selfcare/internal/client/api"
	"github.com/movitel/selfcare/internal/document"
)

// Mode is the single active flow mode. It is owned exclusively by the
// Machine and mutated only through transition requests.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
	ModeIdentityEntry
	ModeTokenValidation
	ModePasswordChange
)

func (m Mode) String() string {
	switch m {
	case ModeLogin:
		return "login"
	case ModeSignup:
		return "signup"
	case ModeIdentityEntry:
		return "identity_entry"
	case ModeTokenValidation:
		return "token_validation"
	case ModePasswordChange:
		return "password_change"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidTransition rejects a request not allowed from the
	// current mode, or one whose identifier precondition fails.
	ErrInvalidTransition = errors.New("transition not allowed from current mode")
	// ErrBusy rejects a submission while another request is in flight.
	ErrBusy = errors.New("another request is in flight")
	// ErrLockedOut rejects submissions after a 403 lockout; the
	// session requires out-of-band support to unblock.
	ErrLockedOut = errors.New("session locked out, contact support")
	// ErrPasswordTooShort rejects passwords under six characters.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrPasswordMismatch rejects a confirmation that differs.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrNotRecoverable reports a document check that did not confirm
	// a recoverable account.
	ErrNotRecoverable = errors.New("document does not identify a recoverable account")
)

// Service is the network surface the machine drives.
type Service interface {
	CheckDocument(ctx context.Context, raw string, typ document.Type) api.DocumentCheckResult
	ValidateToken(ctx context.Context, identifier, token string) error
	ChangePassword(ctx context.Context, identifier, password string) error
}

// Machine is the recovery session state: the active mode, the
// verified identifier, a busy flag enforcing one in-flight request,
// and the session lockout flag.
type Machine struct {
	mu sync.Mutex

	mode       Mode
	identifier string
	busy       bool
	lockedOut  bool

	service Service
	log     *zap.Logger
}

// New constructs a Machine in ModeLogin.
func New(service Service, log *zap.Logger) *Machine {
	return &Machine{mode: ModeLogin, service: service, log: log}
}

// Mode returns the active flow mode.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Identifier returns the verified document, empty until the check
// flow confirms a recoverable account.
func (m *Machine) Identifier() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identifier
}

// Busy reports whether a request is in flight.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// LockedOut reports whether the session hit the 403 lockout.
func (m *Machine) LockedOut() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lockedOut
}

// Begin moves Login → IdentityEntry ("forgot password"). No
// precondition.
func (m *Machine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeLogin {
		return ErrInvalidTransition
	}
	m.mode = ModeIdentityEntry
	return nil
}

// StartSignup moves Login → Signup.
func (m *Machine) StartSignup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeLogin {
		return ErrInvalidTransition
	}
	m.mode = ModeSignup
	return nil
}

// acquire marks the machine busy for one network submission from the
// required mode, enforcing the lockout and single-flight invariants.
func (m *Machine) acquire(required Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != required {
		return ErrInvalidTransition
	}
	if m.lockedOut {
		return ErrLockedOut
	}
	if m.busy {
		return ErrBusy
	}
	m.busy = true
	return nil
}

func (m *Machine) release() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

// SubmitDocument runs the document check flow from IdentityEntry.
// When the classification confirms a recoverable account the
// identifier is persisted and the mode advances to TokenValidation;
// otherwise the mode is unchanged and the result tells the caller
// which path to render (signup, blocked, inline error). An account
// blocked by an active line is not recoverable: no token exists for
// it, so advancing would strand the user on the token screen.
func (m *Machine) SubmitDocument(ctx context.Context, raw string, typ document.Type) (api.DocumentCheckResult, error) {
	if err := m.acquire(ModeIdentityEntry); err != nil {
		return api.DocumentCheckResult{}, err
	}
	defer m.release()

	result := m.service.CheckDocument(ctx, raw, typ)
	if ctx.Err() != nil {
		// Abandoned mid-flight: leave the session untouched.
		return result, ctx.Err()
	}
	if !result.HasAccount || result.HasActiveLine {
		return result, ErrNotRecoverable
	}

	m.mu.Lock()
	m.identifier = document.OnlyDigits(raw)
	m.mode = ModeTokenValidation
	m.mu.Unlock()
	m.log.Info("document confirmed, awaiting token", zap.String("mode", ModeTokenValidation.String()))
	return result, nil
}

// SubmitToken validates the six-digit token against the persisted
// identifier. Success advances to PasswordChange. A 403 marks the
// session locked out with mode and identifier unchanged; any other
// failure stays in place for a user-initiated resubmission.
func (m *Machine) SubmitToken(ctx context.Context, token string) error {
	m.mu.Lock()
	if m.mode == ModeTokenValidation && m.identifier == "" {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.mu.Unlock()

	if err := m.acquire(ModeTokenValidation); err != nil {
		return err
	}
	defer m.release()

	identifier := m.Identifier()
	if err := m.service.ValidateToken(ctx, identifier, token); err != nil {
		if api.IsLockout(err) {
			m.mu.Lock()
			m.lockedOut = true
			m.mu.Unlock()
			m.log.Warn("token validation locked out")
			return ErrLockedOut
		}
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.mu.Lock()
	m.mode = ModePasswordChange
	m.mu.Unlock()
	return nil
}

// SubmitPassword changes the password for the persisted identifier.
// Length and confirmation are checked before any network call.
// Success completes the session: mode returns to Login and the
// identifier is cleared. The 403 lockout rule matches SubmitToken.
func (m *Machine) SubmitPassword(ctx context.Context, password, confirmation string) error {
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}

	m.mu.Lock()
	if m.mode == ModePasswordChange && m.identifier == "" {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.mu.Unlock()

	if err := m.acquire(ModePasswordChange); err != nil {
		return err
	}
	defer m.release()

	identifier := m.Identifier()
	if err := m.service.ChangePassword(ctx, identifier, password); err != nil {
		if api.IsLockout(err) {
			m.mu.Lock()
			m.lockedOut = true
			m.mu.Unlock()
			m.log.Warn("password change locked out")
			return ErrLockedOut
		}
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.mu.Lock()
	m.mode = ModeLogin
	m.identifier = ""
	m.lockedOut = false
	m.mu.Unlock()
	m.log.Info("password changed, session complete")
	return nil
}

// Back navigates one step backward without clearing the identifier:
// TokenValidation → IdentityEntry, PasswordChange → TokenValidation.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	switch m.mode {
	case ModeTokenValidation:
		m.mode = ModeIdentityEntry
	case ModePasswordChange:
		m.mode = ModeTokenValidation
	default:
		return ErrInvalidTransition
	}
	return nil
}

// Cancel aborts the session from any mode: back to Login with the
// identifier and session flags cleared.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = ModeLogin
	m.identifier = ""
	m.lockedOut = false
	m.busy = false
}
