package signing

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
)

// Scheme produces a provider-compatible signature over an already
// canonicalized payload string. The digest algorithm and keying mode are a
// fixed contract with the payment provider, so each scheme is registered
// under a stable name and selected by configuration — never inlined.
type Scheme interface {
	Name() string
	Sign(secret, payload string) string
}

// sha1Scheme: base64(SHA1(payload + secret)). The secret is appended to the
// canonical string, not used as a key.
type sha1Scheme struct{}

func (sha1Scheme) Name() string { return SchemeSHA1 }

func (sha1Scheme) Sign(secret, payload string) string {
	sum := sha1.Sum([]byte(payload + secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// hmacMD5Scheme: base64(HMAC-MD5(secret, payload)). This is the provider's
// published merchant signature contract.
type hmacMD5Scheme struct{}

func (hmacMD5Scheme) Name() string { return SchemeHMACMD5 }

func (hmacMD5Scheme) Sign(secret, payload string) string {
	mac := hmac.New(md5.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

const (
	SchemeSHA1    = "wayforpay-sha1"
	SchemeHMACMD5 = "wayforpay-hmac-md5"
)

var schemes = map[string]Scheme{
	SchemeSHA1:    sha1Scheme{},
	SchemeHMACMD5: hmacMD5Scheme{},
}

// SchemeByName resolves a configured scheme name.
func SchemeByName(name string) (Scheme, error) {
	s, ok := schemes[name]
	if !ok {
		return nil, fmt.Errorf("unknown signing scheme: %q", name)
	}
	return s, nil
}
