// Package signing generates detached RSA signatures over delivered asset
// bytes, letting a client prove it received exactly the bytes the gateway
// fetched, independent of transport integrity.
package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"

	apperrors "github.com/allisson/gitgate/internal/errors"
)

// Signer produces RSA PKCS#1 v1.5 signatures over a SHA-256 digest.
// The private key is loaded once at construction; the same bytes always
// produce a signature that validates under the signer's public key.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner loads an RSA private key from a PEM file (PKCS#1 or PKCS#8).
// Callers treat a load failure as "signer unavailable" and skip signing
// rather than failing requests.
func NewSigner(privateKeyPath string) (*Signer, error) {
	raw, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read signing key")
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, apperrors.New("signing key is not valid PEM")
	}

	key, err := parseRSAKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	return &Signer{key: key}, nil
}

// parseRSAKey accepts PKCS#1 and PKCS#8 encoded RSA keys.
func parseRSAKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse signing key")
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, apperrors.New("signing key is not an RSA key")
	}
	return key, nil
}

// Sign returns a base64-encoded RSA-SHA256 signature over payload.
func (s *Signer) Sign(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)

	signature, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign payload")
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// PublicKey exposes the verification key for clients and tests.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}
