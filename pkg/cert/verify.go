package cert

import (
	"context"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

// Verification errors.
var (
	ErrCertExpired     = errors.New("certificate has expired")
	ErrCertNotYetValid = errors.New("certificate is not yet valid")
	ErrKeyMismatch     = errors.New("private key does not match certificate")
	ErrUntrusted       = errors.New("certificate not issued by trust anchor")
	ErrWrongPurpose    = errors.New("certificate not valid for client authentication")
	ErrNotCA           = errors.New("trust anchor is not a CA certificate")
)

// Verifier is the chain-verification capability used by the Gate.
// Implementations read the material behind a complete CredentialSet,
// validate it at time now and return the verified leaf certificate.
type Verifier interface {
	Verify(ctx context.Context, creds CredentialSet, now time.Time) (*x509.Certificate, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, creds CredentialSet, now time.Time) (*x509.Certificate, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, creds CredentialSet, now time.Time) (*x509.Certificate, error) {
	return f(ctx, creds, now)
}

// X509Verifier validates PEM credential files with crypto/x509: the trust
// anchor must have issued the certificate, the validity window must cover
// now, the certificate must be usable for client authentication and the
// private key must belong to it.
type X509Verifier struct {
	// KeyUsages overrides the required extended key usages.
	// Defaults to client authentication.
	KeyUsages []x509.ExtKeyUsage
}

// Load reads and decodes the material referenced by creds.
func Load(creds CredentialSet) (*Material, error) {
	leaf, err := ReadCertFile(creds.CertPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	key, err := ReadKeyFile(creds.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	anchor, err := ReadCertFile(creds.CAPath)
	if err != nil {
		return nil, fmt.Errorf("read trust anchor: %w", err)
	}
	return &Material{Certificate: leaf, PrivateKey: key, TrustAnchor: anchor}, nil
}

// Verify implements Verifier.
func (v X509Verifier) Verify(ctx context.Context, creds CredentialSet, now time.Time) (*x509.Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := Load(creds)
	if err != nil {
		return nil, err
	}
	if err := v.VerifyMaterial(m, now); err != nil {
		return nil, err
	}
	return m.Certificate, nil
}

// VerifyMaterial validates already decoded material.
func (v X509Verifier) VerifyMaterial(m *Material, now time.Time) error {
	if m == nil || m.Certificate == nil {
		return ErrInvalidCert
	}
	if m.TrustAnchor == nil || !m.TrustAnchor.IsCA {
		return ErrNotCA
	}

	c := m.Certificate
	if now.Before(c.NotBefore) {
		return ErrCertNotYetValid
	}
	if now.After(c.NotAfter) {
		return ErrCertExpired
	}

	if err := matchKey(c, m.PrivateKey); err != nil {
		return err
	}

	usages := v.KeyUsages
	if len(usages) == 0 {
		usages = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	}

	roots := x509.NewCertPool()
	roots.AddCert(m.TrustAnchor)

	opts := x509.VerifyOptions{
		Roots:       roots,
		CurrentTime: now,
		KeyUsages:   usages,
	}
	if _, err := c.Verify(opts); err != nil {
		var invalid x509.CertificateInvalidError
		if errors.As(err, &invalid) && invalid.Reason == x509.IncompatibleUsage {
			return fmt.Errorf("%w: %v", ErrWrongPurpose, err)
		}
		return fmt.Errorf("%w: %v", ErrUntrusted, err)
	}
	return nil
}

// ErrInvalidCert is returned for nil or unusable certificates.
var ErrInvalidCert = errors.New("invalid certificate")

func matchKey(c *x509.Certificate, key any) error {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return ErrInvalidKey
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(c.PublicKey) {
		return ErrKeyMismatch
	}
	return nil
}

// CertificateInfo extracts human-readable information from a certificate.
type CertificateInfo struct {
	Subject            string
	Issuer             string
	Serial             string
	NotBefore          time.Time
	NotAfter           time.Time
	IsCA               bool
	SignatureAlgorithm string
	PublicKeyAlgorithm string
	SKI                []byte
	AKI                []byte
}

// GetCertificateInfo extracts information from a certificate.
func GetCertificateInfo(c *x509.Certificate) *CertificateInfo {
	if c == nil {
		return nil
	}
	info := &CertificateInfo{
		Subject:            c.Subject.String(),
		Issuer:             c.Issuer.String(),
		NotBefore:          c.NotBefore,
		NotAfter:           c.NotAfter,
		IsCA:               c.IsCA,
		SignatureAlgorithm: c.SignatureAlgorithm.String(),
		PublicKeyAlgorithm: c.PublicKeyAlgorithm.String(),
		SKI:                c.SubjectKeyId,
		AKI:                c.AuthorityKeyId,
	}
	if c.SerialNumber != nil {
		info.Serial = c.SerialNumber.Text(16)
	}
	return info
}
