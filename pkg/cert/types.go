package cert

import (
	"crypto/ecdsa"
	"crypto/x509"
	"os"
	"time"
)

// Certificate validity periods used by the PKI generator.
const (
	// CAValidity is the validity period for the trust anchor.
	CAValidity = 10 * 365 * 24 * time.Hour // 10 years

	// ClientCertValidity is the validity period for operator client certificates.
	ClientCertValidity = 365 * 24 * time.Hour // 1 year
)

// Default file names inside a PKI directory.
const (
	DefaultCertFile = "client.crt"
	DefaultKeyFile  = "client.key"
	DefaultCAFile   = "ca.crt"
)

// KeyPair holds an ECDSA P-256 key pair.
type KeyPair struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  *ecdsa.PublicKey
}

// CredentialSet references the identity material presented by an operator.
// The locators are file paths; the set is never mutated by verification.
type CredentialSet struct {
	// CertPath is the operator's client certificate (PEM).
	CertPath string

	// KeyPath is the private key matching the client certificate (PEM).
	KeyPath string

	// CAPath is the trust anchor that must have issued the certificate (PEM).
	CAPath string
}

// Missing returns the locators that do not resolve to existing material,
// in certificate, key, trust anchor order. Unset locators are reported by
// role.
func (c CredentialSet) Missing() []string {
	var missing []string
	for _, loc := range []struct{ role, path string }{
		{"certificate", c.CertPath},
		{"private key", c.KeyPath},
		{"trust anchor", c.CAPath},
	} {
		switch {
		case loc.path == "":
			missing = append(missing, loc.role+" (not set)")
		case !exists(loc.path):
			missing = append(missing, loc.path)
		}
	}
	return missing
}

// Complete reports whether all three locators resolve to existing material.
func (c CredentialSet) Complete() bool {
	return len(c.Missing()) == 0
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Material is the decoded content of a complete CredentialSet.
type Material struct {
	Certificate *x509.Certificate
	PrivateKey  any
	TrustAnchor *x509.Certificate
}

// Identity is the verified subject bound to an authenticated session.
type Identity struct {
	// SubjectName is the certificate subject CommonName.
	SubjectName string

	// Organization is the first subject Organization, if any.
	Organization string

	// EstablishedAt is when verification succeeded.
	EstablishedAt time.Time

	// Subject is the full distinguished name, for display.
	Subject string

	// Serial is the certificate serial number in hex.
	Serial string

	// NotAfter is the certificate expiry.
	NotAfter time.Time
}

// IdentityFromCert extracts subject attributes from a verified certificate.
func IdentityFromCert(c *x509.Certificate, now time.Time) *Identity {
	id := &Identity{
		SubjectName:   c.Subject.CommonName,
		EstablishedAt: now,
		Subject:       c.Subject.String(),
		NotAfter:      c.NotAfter,
	}
	if len(c.Subject.Organization) > 0 {
		id.Organization = c.Subject.Organization[0]
	}
	if c.SerialNumber != nil {
		id.Serial = c.SerialNumber.Text(16)
	}
	return id
}
