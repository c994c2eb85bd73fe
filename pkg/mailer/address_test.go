package mailer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAddress_Valid(t *testing.T) {
	for _, raw := range []string{"a@b.com", "participant@email.com", "first.last+tag@sub.example.org", "  user@email.com "} {
		addr, err := ResolveAddress(raw)
		require.NoError(t, err, raw)
		assert.NotEmpty(t, addr.Email)
		assert.Equal(t, addr.Email, addr.String())
	}
}

func TestResolveAddress_Trims(t *testing.T) {
	addr, err := ResolveAddress("  user@email.com\t")
	require.NoError(t, err)
	assert.Equal(t, "user@email.com", addr.Email)
}

func TestResolveAddress_Invalid(t *testing.T) {
	cases := map[string]error{
		"":             ErrEmptyAddress,
		"   ":          ErrEmptyAddress,
		"not-an-email": ErrMalformedAddress,
		"a@":           ErrMalformedAddress,
		"@b.com":       ErrMalformedAddress,
		"a b@c.com":    ErrMalformedAddress,
	}
	for raw, want := range cases {
		_, err := ResolveAddress(raw)
		require.Error(t, err, raw)

		var addrErr *AddressError
		require.True(t, errors.As(err, &addrErr), raw)
		assert.Equal(t, raw, addrErr.Raw)
		assert.ErrorIs(t, err, want, raw)
	}
}

func TestAddress_StringWithName(t *testing.T) {
	assert.Equal(t, "Jane <jane@example.com>", Address{Email: "jane@example.com", Name: "Jane"}.String())
}
