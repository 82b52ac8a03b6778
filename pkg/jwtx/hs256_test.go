package jwtx_test

import (
	"testing"
	"time"

	"github.com/dewataksu/dashboard/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestHS256SignAndVerify(t *testing.T) {
	t.Parallel()

	h, err := jwtx.NewHS256([]byte("access-secret"), 0)
	require.NoError(t, err)
	require.Equal(t, "HS256", h.Alg())

	now := time.Now()
	token, err := h.Sign(jwtx.NewAccessClaims("user-1", jwtx.DefaultAccessTokenTTL, now))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "user-1", claims.Identity())
	require.NotEmpty(t, claims.ID)
	require.WithinDuration(t, now.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestHS256RejectsEmptySecret(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewHS256(nil, 0)
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)
}

func TestHS256Verify(t *testing.T) {
	t.Parallel()

	access, err := jwtx.NewHS256([]byte("access-secret"), 0)
	require.NoError(t, err)
	refresh, err := jwtx.NewHS256([]byte("refresh-secret"), 0)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := refresh.Sign(jwtx.NewAccessClaims("user-1", time.Hour, time.Now()))
		require.NoError(t, err)

		_, err = access.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := access.Sign(jwtx.NewAccessClaims("user-1", time.Minute, time.Now().Add(-time.Hour)))
		require.NoError(t, err)

		_, err = access.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("leeway tolerates skew", func(t *testing.T) {
		lenient, err := jwtx.NewHS256([]byte("access-secret"), 2*time.Minute)
		require.NoError(t, err)

		token, err := lenient.Sign(jwtx.NewAccessClaims("user-1", time.Minute, time.Now().Add(-90*time.Second)))
		require.NoError(t, err)

		_, err = lenient.Verify(token)
		require.NoError(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := access.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwtx.NewAccessClaims("user-1", time.Hour, time.Now()))
		signed, err := token.SignedString([]byte("access-secret"))
		require.NoError(t, err)

		_, err = access.Verify(signed)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := access.Sign(jwtx.NewAccessClaims("", time.Hour, time.Now()))
		require.NoError(t, err)

		_, err = access.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})
}
