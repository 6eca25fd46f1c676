// Package service provides tamper evidence for audit records.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/gitgate/internal/audit/domain"
)

// Signer signs and verifies audit records.
type Signer interface {
	Sign(key []byte, record *auditDomain.Record) ([]byte, error)
	Verify(key []byte, record *auditDomain.Record) error
}

type recordSigner struct{}

// NewSigner creates an HMAC-based audit record signer using HKDF-SHA256
// for key derivation and HMAC-SHA256 for signature generation.
func NewSigner() Signer {
	return &recordSigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// configured key material, separating signing use from any other key usage.
// Info parameter is versioned for future algorithm changes.
func (r *recordSigner) deriveSigningKey(key []byte) ([]byte, error) {
	info := []byte("audit-record-signing-v1")
	kdf := hkdf.New(sha256.New, key, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts a record to its canonical byte representation.
// Variable-length fields are length-prefixed to prevent ambiguity.
func (r *recordSigner) canonicalize(record *auditDomain.Record) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, record.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(record.RequestID))
	buf = appendLengthPrefixed(buf, []byte(record.DeviceID))
	buf = appendLengthPrefixed(buf, []byte(string(record.Action)))
	buf = appendLengthPrefixed(buf, []byte(record.Resource))
	buf = appendLengthPrefixed(buf, []byte(string(record.Outcome)))

	if record.Metadata != nil {
		metadataBytes, err := json.Marshal(record.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(record.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates an HMAC-SHA256 signature over the canonical record content.
func (r *recordSigner) Sign(key []byte, record *auditDomain.Record) ([]byte, error) {
	signingKey, err := r.deriveSigningKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	canonical, err := r.canonicalize(record)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize record: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the record's signature against its content.
// Returns ErrSignatureInvalid when the record was tampered with.
func (r *recordSigner) Verify(key []byte, record *auditDomain.Record) error {
	expected, err := r.Sign(key, record)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(record.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}

// zero overwrites key material so it does not linger in memory.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
