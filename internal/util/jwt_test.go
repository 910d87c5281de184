package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "a@b.c", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(42, "", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestParsePositiveInt(t *testing.T) {
	n, ok := ParsePositiveInt("6")
	assert.True(t, ok)
	assert.Equal(t, 6, n)

	for _, s := range []string{"0", "-1", "x", ""} {
		_, ok := ParsePositiveInt(s)
		assert.False(t, ok, s)
	}
}
