package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

func TestOperatorToken_RoundTrip(t *testing.T) {
	token, err := IssueOperatorToken("clerk-1", testSecret, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := ParseOperatorToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "clerk-1", claims.Subject)
	assert.Equal(t, OperatorTokenIssuer, claims.Issuer)
}

func TestOperatorToken_WrongSecret(t *testing.T) {
	token, err := IssueOperatorToken("clerk-1", testSecret, time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseOperatorToken(token, "another-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestOperatorToken_Expired(t *testing.T) {
	token, err := IssueOperatorToken("clerk-1", testSecret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseOperatorToken(token, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestOperatorToken_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "clerk-1"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseOperatorToken(token, testSecret)
	assert.Error(t, err)
}

func TestOperatorToken_RequiresOperator(t *testing.T) {
	_, err := IssueOperatorToken("", testSecret, time.Hour, time.Now())
	assert.Error(t, err)
}
