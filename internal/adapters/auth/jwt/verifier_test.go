package jwt

import (
	"context"
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("s3cret", "peptide-tracker")

	token, err := v.Issue("u1", "u1@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("s3cret", "peptide-tracker")
	ctx := context.Background()

	expired, err := v.Issue("u1", "", -time.Minute)
	require.NoError(t, err)
	otherKey, err := NewVerifier("other", "peptide-tracker").Issue("u1", "", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewVerifier("s3cret", "someone-else").Issue("u1", "", time.Hour)
	require.NoError(t, err)
	noSubject, err := v.Issue("", "", time.Hour)
	require.NoError(t, err)
	noExp, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{"sub": "u1", "iss": "peptide-tracker"}).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":        "  ",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"no subject":   noSubject,
		"no expiry":    noExp,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(ctx, token)
			assert.Error(t, err)
		})
	}

	_, err = v.Verify(ctx, "")
	assert.True(t, errors.Is(err, ErrTokenEmpty))

	_, err = NewVerifier("", "").Verify(ctx, expired)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
