package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeByName(t *testing.T) {
	for _, name := range []string{SchemeSHA1, SchemeHMACMD5} {
		s, err := SchemeByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	_, err := SchemeByName("wayforpay-sha256")
	require.Error(t, err)
}

func TestSchemes_AreNotInterchangeable(t *testing.T) {
	sha, err := SchemeByName(SchemeSHA1)
	require.NoError(t, err)
	mac, err := SchemeByName(SchemeHMACMD5)
	require.NoError(t, err)

	payload := "merchant;example.com;sub_42_1000;1000;100;UAH"
	assert.NotEqual(t, sha.Sign("secret", payload), mac.Sign("secret", payload))
}

func TestSigner_RoundTrip(t *testing.T) {
	for _, name := range []string{SchemeSHA1, SchemeHMACMD5} {
		t.Run(name, func(t *testing.T) {
			scheme, err := SchemeByName(name)
			require.NoError(t, err)
			s := NewWithScheme(scheme, "flatline")

			fields := []string{"merchant", "example.com", "sub_42_1000", "1000", "100", "UAH"}
			sig := s.Sign(fields...)
			require.NotEmpty(t, sig)
			require.NoError(t, s.Verify(sig, fields...))
		})
	}
}

func TestSigner_Verify_RejectsTamperedField(t *testing.T) {
	scheme, err := SchemeByName(SchemeHMACMD5)
	require.NoError(t, err)
	s := NewWithScheme(scheme, "flatline")

	fields := []string{"merchant", "example.com", "sub_42_1000", "1000", "100", "UAH"}
	sig := s.Sign(fields...)

	for i := range fields {
		tampered := append([]string(nil), fields...)
		tampered[i] = tampered[i] + "x"
		assert.ErrorIsf(t, s.Verify(sig, tampered...), ErrSignatureMismatch, "field %d", i)
	}
}

func TestSigner_Verify_RejectsWrongSecret(t *testing.T) {
	scheme, err := SchemeByName(SchemeHMACMD5)
	require.NoError(t, err)

	fields := []string{"merchant", "example.com", "sub_42_1000", "1000", "100", "UAH"}
	sig := NewWithScheme(scheme, "flatline").Sign(fields...)

	other := NewWithScheme(scheme, "flatlinf")
	assert.ErrorIs(t, other.Verify(sig, fields...), ErrSignatureMismatch)
}
