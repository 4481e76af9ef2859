// Package biometric gates access to the cached credential behind a
// platform biometric challenge. It performs no network I/O: the
// challenge only shifts the trust boundary from a remembered password
// to the device biometric.
package biometric

import (
	"context"

	"go.uber.org/zap"

	"github.com/movitel/selfcare/internal/client/vault"
)

// State is the gate's lifecycle state.
type State int

const (
	StateUnchecked State = iota
	StateUnsupported
	StateReady
	StateAuthenticating
	StateSucceeded
	StateFailed
)

// Modality is a biometric input kind reported by the platform.
type Modality int

const (
	ModalityGeneric Modality = iota
	ModalityFingerprint
	ModalityFacial
	ModalityIris
)

// ChallengeResult is the outcome of a single platform challenge.
type ChallengeResult struct {
	Success bool
	// CancelReason is set when the user dismissed the prompt.
	CancelReason string
}

// Platform is the device biometric API boundary.
type Platform interface {
	// HasHardware reports whether the device has biometric hardware.
	HasHardware() (bool, error)
	// HasEnrollment reports whether any biometric is enrolled.
	HasEnrollment() (bool, error)
	// Modalities enumerates the available biometric kinds.
	Modalities() ([]Modality, error)
	// Challenge presents a single biometric prompt with cancel and
	// fall-back-to-password affordances.
	Challenge(ctx context.Context, label string) (ChallengeResult, error)
}

// labelPriority is the per-OS preference order for the prompt label.
var labelPriority = map[string][]Modality{
	"android": {ModalityFingerprint, ModalityFacial, ModalityIris},
	"ios":     {ModalityFacial, ModalityFingerprint, ModalityIris},
}

// labels are the user-facing modality names.
var labels = map[Modality]string{
	ModalityFingerprint: "Impressão digital",
	ModalityFacial:      "Reconhecimento facial",
	ModalityIris:        "Íris",
	ModalityGeneric:     "Biometria",
}

// Gate owns the probe state and performs challenges that release the
// vault credential.
type Gate struct {
	platform Platform
	vault    *vault.Vault
	log      *zap.Logger

	state State
	label string
}

// NewGate probes hardware capability and enrollment, resolving the
// display label by the platform priority for osName ("android" or
// "ios"). Probe failures leave the gate unsupported.
func NewGate(platform Platform, v *vault.Vault, osName string, log *zap.Logger) *Gate {
	g := &Gate{platform: platform, vault: v, log: log, state: StateUnchecked, label: labels[ModalityGeneric]}

	hw, err := platform.HasHardware()
	if err != nil || !hw {
		if err != nil {
			log.Warn("biometric hardware probe failed", zap.Error(err))
		}
		g.state = StateUnsupported
		return g
	}
	enrolled, err := platform.HasEnrollment()
	if err != nil || !enrolled {
		if err != nil {
			log.Warn("biometric enrollment probe failed", zap.Error(err))
		}
		g.state = StateUnsupported
		return g
	}

	g.state = StateReady
	g.label = resolveLabel(platform, osName, log)
	return g
}

func resolveLabel(platform Platform, osName string, log *zap.Logger) string {
	available, err := platform.Modalities()
	if err != nil {
		log.Warn("biometric modality probe failed", zap.Error(err))
		return labels[ModalityGeneric]
	}
	has := make(map[Modality]bool, len(available))
	for _, m := range available {
		has[m] = true
	}
	for _, m := range labelPriority[osName] {
		if has[m] {
			return labels[m]
		}
	}
	return labels[ModalityGeneric]
}

// State returns the current gate state.
func (g *Gate) State() State { return g.state }

// Label returns the display label for the challenge prompt.
func (g *Gate) Label() string { return g.label }

// Available reports whether a challenge can be presented at all.
func (g *Gate) Available() bool {
	return g.state != StateUnchecked && g.state != StateUnsupported
}

// Authenticate performs at most one biometric challenge and, on
// success, releases the stored credential. It returns nil without
// presenting a challenge when no credential is cached, and nil on
// cancellation or failure. It never retries: a second attempt is
// always a distinct user-initiated call.
func (g *Gate) Authenticate(ctx context.Context) *vault.Credential {
	if !g.Available() {
		return nil
	}
	if !g.vault.HasCredential() {
		// Nothing to unlock.
		return nil
	}

	g.state = StateAuthenticating
	result, err := g.platform.Challenge(ctx, g.label)
	if err != nil {
		g.log.Warn("biometric challenge failed", zap.Error(err))
		g.state = StateFailed
		return nil
	}
	if !result.Success {
		if result.CancelReason != "" {
			g.log.Info("biometric challenge canceled", zap.String("reason", result.CancelReason))
		}
		g.state = StateFailed
		return nil
	}

	g.state = StateSucceeded
	return g.vault.Credential()
}
