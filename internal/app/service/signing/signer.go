package signing

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/fatflowers/vipclub/pkg/config"
)

// FieldDelimiter joins canonical fields before signing. Part of the
// provider contract.
const FieldDelimiter = ";"

var ErrSignatureMismatch = errors.New("signature mismatch")

// Signer signs outbound gateway requests and verifies inbound notification
// signatures with the configured scheme and merchant secret.
type Signer struct {
	scheme Scheme
	secret string
}

func New(cfg *config.Config) (*Signer, error) {
	scheme, err := SchemeByName(cfg.Gateway.SigningScheme)
	if err != nil {
		return nil, err
	}
	return &Signer{scheme: scheme, secret: cfg.Gateway.SecretKey}, nil
}

// NewWithScheme builds a signer for an explicit scheme and secret.
func NewWithScheme(scheme Scheme, secret string) *Signer {
	return &Signer{scheme: scheme, secret: secret}
}

// Sign concatenates the canonical fields in the given order and signs them.
func (s *Signer) Sign(fields ...string) string {
	return s.scheme.Sign(s.secret, strings.Join(fields, FieldDelimiter))
}

// Verify recomputes the expected signature over the canonical fields and
// compares it to the provided one in constant time.
func (s *Signer) Verify(provided string, fields ...string) error {
	expected := s.Sign(fields...)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
