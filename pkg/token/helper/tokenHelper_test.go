package helper

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateAccessToken(t *testing.T) {
	userID := primitive.NewObjectID()

	token, err := GenerateAccessToken(userID, "secret", 12)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "eyJ"))
}

func TestValidateAccessToken(t *testing.T) {
	userID := primitive.NewObjectID()

	token, err := GenerateAccessToken(userID, "secret", 12)
	require.NoError(t, err)

	got, err := ValidateAccessToken(token, "secret")
	require.NoError(t, err)

	assert.Equal(t, userID, got)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(primitive.NewObjectID(), "secret", 12)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other")

	assert.Error(t, err)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(primitive.NewObjectID(), "secret", -120)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "secret")

	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	userID := primitive.NewObjectID()

	secretKey := "secret"
	expiration := 12
	signedStringPrefix := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9."

	tokenData, err := GenerateRefreshToken(userID, secretKey, expiration)
	require.NoError(t, err)

	assert.Equal(t, expiration, int(tokenData.ExpiresIn.Seconds()))
	assert.True(t, strings.HasPrefix(tokenData.SignedString, signedStringPrefix))
	assert.NotEmpty(t, tokenData.TokenId)
}

func TestValidateRefreshToken(t *testing.T) {
	userID := primitive.NewObjectID()

	secretKey := "secret"
	expiration := 12

	tokenData, err := GenerateRefreshToken(userID, secretKey, expiration)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(tokenData.SignedString, secretKey)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tokenData.TokenId, claims.ID)
	assert.InDelta(t, float64(expiration), claims.ExpiresIn.Seconds(), 2)
	assert.WithinDuration(t, time.Now(), time.Unix(claims.IssuedAt, 0), 2*time.Second)
}

func TestValidateRefreshToken_AccessTokenIsRejected(t *testing.T) {
	token, err := GenerateAccessToken(primitive.NewObjectID(), "secret", 12)
	require.NoError(t, err)

	_, err = ValidateRefreshToken(token, "secret")

	assert.Error(t, err)
}
