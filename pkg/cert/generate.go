package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

// ErrCANotSigner is returned when a certificate authority cannot sign.
var ErrCANotSigner = errors.New("certificate authority cannot sign")

// ErrPartialPKI is returned by WritePKI when only some of the files exist.
var ErrPartialPKI = errors.New("incomplete PKI material present")

// Authority is a trust anchor together with its signing key.
type Authority struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// ClientOptions controls client certificate issuance.
type ClientOptions struct {
	CommonName   string
	Organization string
	Country      string

	// NotBefore defaults to now minus one minute.
	NotBefore time.Time

	// Validity defaults to ClientCertValidity.
	Validity time.Duration

	// ExtKeyUsage defaults to client authentication.
	ExtKeyUsage []x509.ExtKeyUsage
}

// GenerateKeyPair generates a new ECDSA P-256 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{PrivateKey: priv, PublicKey: &priv.PublicKey}, nil
}

// ComputeSKI computes a Subject Key Identifier (SHA-1 of the public key point).
func ComputeSKI(pub *ecdsa.PublicKey) ([]byte, error) {
	k, err := pub.ECDH()
	if err != nil {
		return nil, err
	}
	sum := sha1.Sum(k.Bytes())
	return sum[:], nil
}

func randomSerial() (*big.Int, error) {
	return rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
}

// GenerateCA creates a self-signed trust anchor.
func GenerateCA(commonName, organization string) (*Authority, error) {
	kp, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	ski, err := ComputeSKI(kp.PublicKey)
	if err != nil {
		return nil, err
	}
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: nonEmpty(organization),
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(CAValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
		SubjectKeyId:          ski,
		AuthorityKeyId:        ski,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, kp.PublicKey, kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("create CA certificate: %w", err)
	}
	c, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return &Authority{Certificate: c, PrivateKey: kp.PrivateKey}, nil
}

// IssueClientCert signs a new client certificate for a fresh key pair.
func (a *Authority) IssueClientCert(opts ClientOptions) (*x509.Certificate, *ecdsa.PrivateKey, error) {
	if a == nil || a.Certificate == nil || a.PrivateKey == nil {
		return nil, nil, ErrCANotSigner
	}
	kp, err := GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	ski, err := ComputeSKI(kp.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	serial, err := randomSerial()
	if err != nil {
		return nil, nil, err
	}

	notBefore := opts.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Now().Add(-time.Minute)
	}
	validity := opts.Validity
	if validity == 0 {
		validity = ClientCertValidity
	}
	eku := opts.ExtKeyUsage
	if eku == nil {
		eku = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   opts.CommonName,
			Organization: nonEmpty(opts.Organization),
			Country:      nonEmpty(opts.Country),
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           eku,
		BasicConstraintsValid: true,
		SubjectKeyId:          ski,
		AuthorityKeyId:        a.Certificate.SubjectKeyId,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, a.Certificate, kp.PublicKey, a.PrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("sign client certificate: %w", err)
	}
	c, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, err
	}
	return c, kp.PrivateKey, nil
}

// WritePKI generates a trust anchor and one client certificate and writes
// them into dir using the default file names. Unless overwrite is set,
// existing files are never replaced: a complete set is returned as is and
// a partial set fails with ErrPartialPKI.
func WritePKI(dir string, opts ClientOptions, overwrite bool) (CredentialSet, error) {
	creds := CredentialSet{
		CertPath: filepath.Join(dir, DefaultCertFile),
		KeyPath:  filepath.Join(dir, DefaultKeyFile),
		CAPath:   filepath.Join(dir, DefaultCAFile),
	}
	if !overwrite {
		var present []string
		for _, path := range []string{creds.CertPath, creds.KeyPath, creds.CAPath} {
			if exists(path) {
				present = append(present, path)
			}
		}
		switch len(present) {
		case 3:
			return creds, nil
		case 1, 2:
			return creds, fmt.Errorf("%w: %v", ErrPartialPKI, present)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return creds, err
	}

	caName := "AdaptivePWM Root CA"
	if opts.Organization != "" {
		caName = opts.Organization + " Root CA"
	}
	ca, err := GenerateCA(caName, opts.Organization)
	if err != nil {
		return creds, err
	}
	c, key, err := ca.IssueClientCert(opts)
	if err != nil {
		return creds, err
	}

	if err := WriteCertFile(creds.CAPath, ca.Certificate); err != nil {
		return creds, fmt.Errorf("write trust anchor: %w", err)
	}
	if err := WriteCertFile(creds.CertPath, c); err != nil {
		return creds, fmt.Errorf("write client certificate: %w", err)
	}
	if err := WriteKeyFile(creds.KeyPath, key); err != nil {
		return creds, fmt.Errorf("write private key: %w", err)
	}
	return creds, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
