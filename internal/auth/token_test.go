package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndParse(t *testing.T) {
	now := time.Now()
	exp := now.Add(time.Hour)

	s, err := GenerateToken(secret, "tok-1", 42, now, &exp)
	require.NoError(t, err)

	c, err := ParseToken(secret, s)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", c.TokenID())

	uid, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, exp.Unix(), c.ExpiresAt.Unix())
}

func TestGenerate_NoExpiry(t *testing.T) {
	s, err := GenerateToken(secret, "tok-2", 1, time.Now(), nil)
	require.NoError(t, err)

	c, err := ParseToken(secret, s)
	require.NoError(t, err)
	assert.Nil(t, c.ExpiresAt)
}

func TestParse_Expired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	s, err := GenerateToken(secret, "tok-3", 1, past.Add(-time.Hour), &past)
	require.NoError(t, err)

	_, err = ParseToken(secret, s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongSecret(t *testing.T) {
	s, err := GenerateToken(secret, "tok-4", 1, time.Now(), nil)
	require.NoError(t, err)

	_, err = ParseToken([]byte("other"), s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{RegisteredClaims: jwt.RegisteredClaims{ID: "x", Subject: "1"}})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(secret, s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_MissingJTI(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(secret, s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Garbage(t *testing.T) {
	_, err := ParseToken(secret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_BadSubject(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
