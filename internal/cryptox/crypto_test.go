package cryptox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_SealOpen(t *testing.T) {
	s, err := NewSealer("seal-key")
	require.NoError(t, err)

	sealed, err := s.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "JBSWY3DPEHPK3PXP")

	got, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", got)
}

func TestSealer_FreshNonce(t *testing.T) {
	s, err := NewSealer("seal-key")
	require.NoError(t, err)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_WrongKey(t *testing.T) {
	s1, err := NewSealer("key-one")
	require.NoError(t, err)
	s2, err := NewSealer("key-two")
	require.NoError(t, err)

	sealed, err := s1.Seal("secret")
	require.NoError(t, err)

	_, err = s2.Open(sealed)
	require.Error(t, err)
}

func TestSealer_Tampered(t *testing.T) {
	s, err := NewSealer("seal-key")
	require.NoError(t, err)

	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = s.Open(base64.StdEncoding.EncodeToString(raw))
	require.Error(t, err)
}

func TestSealer_Malformed(t *testing.T) {
	s, err := NewSealer("seal-key")
	require.NoError(t, err)

	_, err = s.Open("%%%not-base64")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = s.Open(base64.StdEncoding.EncodeToString([]byte("short")))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestNewSealer_EmptyKey(t *testing.T) {
	_, err := NewSealer("")
	require.Error(t, err)
}
