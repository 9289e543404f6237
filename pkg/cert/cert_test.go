package cert

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGenerateKeyPair(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	if kp.PrivateKey == nil || kp.PublicKey == nil {
		t.Fatal("key pair should be populated")
	}
	if kp.PrivateKey.Curve.Params().Name != "P-256" {
		t.Errorf("Expected P-256 curve, got %s", kp.PrivateKey.Curve.Params().Name)
	}
}

func TestComputeSKI(t *testing.T) {
	kp, _ := GenerateKeyPair()

	ski, err := ComputeSKI(kp.PublicKey)
	if err != nil {
		t.Fatalf("ComputeSKI() error = %v", err)
	}
	if len(ski) != 20 {
		t.Errorf("SKI length = %d, want 20", len(ski))
	}

	ski2, _ := ComputeSKI(kp.PublicKey)
	if !bytes.Equal(ski, ski2) {
		t.Error("Same key should produce same SKI")
	}

	kp2, _ := GenerateKeyPair()
	ski3, _ := ComputeSKI(kp2.PublicKey)
	if bytes.Equal(ski, ski3) {
		t.Error("Different keys should produce different SKIs")
	}
}

func TestGenerateCA(t *testing.T) {
	ca, err := GenerateCA("Test Root CA", "LTT Sweden")
	if err != nil {
		t.Fatalf("GenerateCA() error = %v", err)
	}

	c := ca.Certificate
	if !c.IsCA {
		t.Error("Certificate should be a CA")
	}
	if c.MaxPathLen != 0 || !c.MaxPathLenZero {
		t.Error("MaxPathLen should be 0")
	}
	if c.Subject.CommonName != "Test Root CA" {
		t.Errorf("CommonName = %q", c.Subject.CommonName)
	}
	if !bytes.Equal(c.SubjectKeyId, c.AuthorityKeyId) {
		t.Error("CA should be self-signed (SKI == AKI)")
	}

	d := c.NotAfter.Sub(c.NotBefore)
	want := CAValidity + time.Minute
	if d < want-time.Second || d > want+time.Second {
		t.Errorf("Validity duration = %v, want ~%v", d, want)
	}
}

func TestIssueClientCert(t *testing.T) {
	ca, err := GenerateCA("Test Root CA", "LTT Sweden")
	if err != nil {
		t.Fatalf("GenerateCA() error = %v", err)
	}

	c, key, err := ca.IssueClientCert(ClientOptions{CommonName: "admin", Organization: "LTT Sweden", Country: "SE"})
	if err != nil {
		t.Fatalf("IssueClientCert() error = %v", err)
	}

	if c.IsCA {
		t.Error("client certificate should not be a CA")
	}
	if c.Subject.CommonName != "admin" {
		t.Errorf("CommonName = %q, want admin", c.Subject.CommonName)
	}
	if len(c.ExtKeyUsage) != 1 || c.ExtKeyUsage[0] != x509.ExtKeyUsageClientAuth {
		t.Errorf("ExtKeyUsage = %v, want [ClientAuth]", c.ExtKeyUsage)
	}
	if !bytes.Equal(c.AuthorityKeyId, ca.Certificate.SubjectKeyId) {
		t.Error("certificate should be signed by the CA")
	}
	if !key.PublicKey.Equal(c.PublicKey) {
		t.Error("returned key should match certificate")
	}
}

func TestIssueClientCertWithoutSigner(t *testing.T) {
	var ca *Authority
	if _, _, err := ca.IssueClientCert(ClientOptions{CommonName: "x"}); err != ErrCANotSigner {
		t.Errorf("error = %v, want ErrCANotSigner", err)
	}
}

func TestWritePKI(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pki")

	creds, err := WritePKI(dir, ClientOptions{CommonName: "admin", Organization: "LTT Sweden"}, false)
	if err != nil {
		t.Fatalf("WritePKI() error = %v", err)
	}
	if !creds.Complete() {
		t.Fatalf("credential set incomplete: missing %v", creds.Missing())
	}

	info, err := os.Stat(creds.KeyPath)
	if err != nil {
		t.Fatalf("stat key: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("key permissions = %v, want 0600", info.Mode().Perm())
	}

	before, _ := os.ReadFile(creds.CertPath)

	// Second call without overwrite keeps the existing material.
	if _, err := WritePKI(dir, ClientOptions{CommonName: "other"}, false); err != nil {
		t.Fatalf("WritePKI() second call error = %v", err)
	}
	after, _ := os.ReadFile(creds.CertPath)
	if !bytes.Equal(before, after) {
		t.Error("existing certificate should not be overwritten")
	}

	if _, err := WritePKI(dir, ClientOptions{CommonName: "other"}, true); err != nil {
		t.Fatalf("WritePKI() overwrite error = %v", err)
	}
	c, err := ReadCertFile(creds.CertPath)
	if err != nil {
		t.Fatalf("ReadCertFile() error = %v", err)
	}
	if c.Subject.CommonName != "other" {
		t.Errorf("CommonName = %q, want other", c.Subject.CommonName)
	}
}

func TestWritePKIKeepsPartialMaterial(t *testing.T) {
	dir := t.TempDir()
	caPath := filepath.Join(dir, DefaultCAFile)
	original := []byte("existing trust anchor")
	if err := os.WriteFile(caPath, original, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := WritePKI(dir, ClientOptions{CommonName: "admin"}, false)
	if !errors.Is(err, ErrPartialPKI) {
		t.Fatalf("WritePKI() error = %v, want ErrPartialPKI", err)
	}
	got, _ := os.ReadFile(caPath)
	if !bytes.Equal(got, original) {
		t.Error("existing trust anchor should not be overwritten")
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultCertFile)); err == nil {
		t.Error("client certificate should not be written")
	}

	creds, err := WritePKI(dir, ClientOptions{CommonName: "admin"}, true)
	if err != nil {
		t.Fatalf("WritePKI() overwrite error = %v", err)
	}
	if !creds.Complete() {
		t.Errorf("credential set incomplete: missing %v", creds.Missing())
	}
}

func TestCredentialSetMissing(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.pem")
	if err := os.WriteFile(present, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	absent := filepath.Join(dir, "absent.pem")

	tests := []struct {
		name  string
		creds CredentialSet
		want  int
	}{
		{"AllPresent", CredentialSet{present, present, present}, 0},
		{"NoCert", CredentialSet{absent, present, present}, 1},
		{"EmptyKey", CredentialSet{present, "", present}, 1},
		{"DirectoryCA", CredentialSet{present, present, dir}, 1},
		{"AllAbsent", CredentialSet{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.creds.Missing()); got != tt.want {
				t.Errorf("len(Missing()) = %d, want %d", got, tt.want)
			}
			if tt.creds.Complete() != (tt.want == 0) {
				t.Errorf("Complete() = %v", tt.creds.Complete())
			}
		})
	}
}

func TestDecodeKeyPEM(t *testing.T) {
	key, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)

	t.Run("SEC1", func(t *testing.T) {
		data, err := EncodeKeyPEM(key)
		if err != nil {
			t.Fatal(err)
		}
		got, err := DecodeKeyPEM(data)
		if err != nil {
			t.Fatalf("DecodeKeyPEM() error = %v", err)
		}
		if !key.Equal(got) {
			t.Error("decoded key differs")
		}
	})

	t.Run("PKCS8", func(t *testing.T) {
		der, _ := x509.MarshalPKCS8PrivateKey(key)
		data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
		got, err := DecodeKeyPEM(data)
		if err != nil {
			t.Fatalf("DecodeKeyPEM() error = %v", err)
		}
		if !key.Equal(got) {
			t.Error("decoded key differs")
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := DecodeKeyPEM([]byte("# Placeholder client.key\n")); err != ErrInvalidPEM {
			t.Errorf("error = %v, want ErrInvalidPEM", err)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1}})
		if _, err := DecodeKeyPEM(data); err != ErrInvalidKey {
			t.Errorf("error = %v, want ErrInvalidKey", err)
		}
	})
}
