package cert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Authentication failure sentinels. Use errors.Is against an *AuthError.
var (
	ErrMissingMaterial = errors.New("missing credential material")
	ErrInvalidChain    = errors.New("invalid certificate chain")
)

// AuthKind classifies an authentication failure.
type AuthKind uint8

const (
	// AuthMissingMaterial means one or more locators did not resolve.
	AuthMissingMaterial AuthKind = iota + 1

	// AuthInvalidChain means the verification capability rejected the material.
	AuthInvalidChain
)

// String returns the failure kind name.
func (k AuthKind) String() string {
	switch k {
	case AuthMissingMaterial:
		return "MISSING_MATERIAL"
	case AuthInvalidChain:
		return "INVALID_CHAIN"
	default:
		return "UNKNOWN"
	}
}

// AuthError is returned by Gate.Verify.
type AuthError struct {
	Kind AuthKind

	// Missing lists unresolved locators (AuthMissingMaterial only).
	Missing []string

	// Err is the verifier's error (AuthInvalidChain only).
	Err error
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case AuthMissingMaterial:
		return fmt.Sprintf("authentication failed: missing credential material: %s", strings.Join(e.Missing, ", "))
	case AuthInvalidChain:
		return fmt.Sprintf("authentication failed: invalid certificate chain: %v", e.Err)
	default:
		return "authentication failed"
	}
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *AuthError) Unwrap() []error {
	var errs []error
	switch e.Kind {
	case AuthMissingMaterial:
		errs = append(errs, ErrMissingMaterial)
	case AuthInvalidChain:
		errs = append(errs, ErrInvalidChain)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Gate establishes an Identity from a CredentialSet. It holds no mutable
// state and is safe for concurrent use.
type Gate struct {
	verifier Verifier
	now      func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithClock overrides the time source used for validity checks.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a Gate backed by the given verifier.
// A nil verifier selects X509Verifier.
func NewGate(v Verifier, opts ...GateOption) *Gate {
	if v == nil {
		v = X509Verifier{}
	}
	g := &Gate{verifier: v, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Verify checks that all material exists, runs the verification capability
// and extracts the subject into an Identity. Failures are *AuthError values
// and are terminal: the gate never retries.
func (g *Gate) Verify(ctx context.Context, creds CredentialSet) (*Identity, error) {
	if missing := creds.Missing(); len(missing) > 0 {
		return nil, &AuthError{Kind: AuthMissingMaterial, Missing: missing}
	}

	now := g.now()
	leaf, err := g.verifier.Verify(ctx, creds, now)
	if err != nil {
		return nil, &AuthError{Kind: AuthInvalidChain, Err: err}
	}
	if leaf == nil {
		return nil, &AuthError{Kind: AuthInvalidChain, Err: ErrInvalidCert}
	}
	return IdentityFromCert(leaf, now), nil
}
