package authn

import (
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
)

func TestParseClaims(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Kintu",
		Email:     "alice@example.com",
		Phone:     "+256700000001",
	}).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	claims, err := ParseClaims(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice", claims.FirstName)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "+256700000001", claims.Phone)
}

func TestParseClaimsEmptyToken(t *testing.T) {
	_, err := ParseClaims("")
	assert.Error(t, err)
}
