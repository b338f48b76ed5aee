package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	other, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts should differ")

	assert.NoError(t, CheckPasswordHash(hash, "correct horse"))
	assert.Error(t, CheckPasswordHash(hash, "wrong horse"))
	assert.Error(t, CheckPasswordHash("not-a-hash", "correct horse"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHashPassword_BadCostFallsBack(t *testing.T) {
	hash, err := HashPassword("password1", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestGenerateNumericOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateNumericOTP(6)
		require.NoError(t, err)
		require.Len(t, otp, 6)
		for _, r := range otp {
			require.True(t, r >= '0' && r <= '9', "non-digit in %q", otp)
		}
	}

	otp, err := GenerateNumericOTP(0)
	require.NoError(t, err)
	assert.Len(t, otp, 6)
}

func TestEqualOTP(t *testing.T) {
	assert.True(t, EqualOTP("123456", "123456"))
	assert.False(t, EqualOTP("123456", "123457"))
	assert.False(t, EqualOTP("123456", ""))
}

func TestSMTPClient_NotConfigured(t *testing.T) {
	c := NewSMTPClient("", 0, "", "", "")
	assert.Equal(t, 587, c.Port)
	assert.False(t, c.Configured())
	assert.Error(t, c.Send("a@b.c", "s", "b"))
}

func TestBuildMessage(t *testing.T) {
	msg := string(BuildMessage("from@x.io", "to@x.io", "Hi", "body"))
	assert.True(t, strings.HasPrefix(msg, "From: from@x.io\r\nTo: to@x.io\r\nSubject: Hi\r\n"))
	assert.True(t, strings.HasSuffix(msg, "\r\nbody\r\n"))
}
