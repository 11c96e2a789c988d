package token

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRepository struct {
	tokens map[string]time.Duration
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{tokens: map[string]time.Duration{}}
}

func (f *fakeRepository) SetRefreshToken(userID primitive.ObjectID, tokenID string, expiresIn time.Duration) error {
	f.tokens[refreshTokenKey(userID, tokenID)] = expiresIn
	return nil
}

func (f *fakeRepository) HasRefreshToken(userID primitive.ObjectID, tokenID string) (bool, error) {
	_, ok := f.tokens[refreshTokenKey(userID, tokenID)]
	return ok, nil
}

func (f *fakeRepository) DeleteRefreshToken(userID primitive.ObjectID, tokenID string) error {
	key := refreshTokenKey(userID, tokenID)
	if _, ok := f.tokens[key]; !ok {
		return errTokenNotFound
	}
	delete(f.tokens, key)
	return nil
}

func (f *fakeRepository) DeleteRefreshTokens(userID primitive.ObjectID) error {
	for key := range f.tokens {
		if strings.HasPrefix(key, "refresh:"+userID.Hex()+":") {
			delete(f.tokens, key)
		}
	}
	return nil
}

func newTestService(repository repository) *tokenService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repository, "access", 60, "refresh", 120)
}

func TestTokenService_GetTokens(t *testing.T) {
	repository := newFakeRepository()
	service := newTestService(repository)
	userID := primitive.NewObjectID()

	tokens, err := service.GetTokens(userID, "")
	require.NoError(t, err)

	assert.Equal(t, "bearer", tokens.TokenType)
	assert.Equal(t, uint(60), tokens.ExpiresIn)
	assert.Len(t, repository.tokens, 1)

	got, err := service.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenService_RefreshRotates(t *testing.T) {
	repository := newFakeRepository()
	service := newTestService(repository)
	userID := primitive.NewObjectID()
	ctx := context.Background()

	tokens, err := service.GetTokens(userID, "")
	require.NoError(t, err)

	data, err := service.ValidateRefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, data.UserID)

	_, err = service.GetTokens(userID, data.ID.String())
	require.NoError(t, err)

	_, err = service.ValidateRefreshToken(ctx, tokens.RefreshToken)
	assert.True(t, errdef.IsUnauthorized(err))

	_, err = service.GetTokens(userID, data.ID.String())
	assert.True(t, errdef.IsUnauthorized(err))
}

func TestTokenService_SignOut(t *testing.T) {
	repository := newFakeRepository()
	service := newTestService(repository)
	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	tokens, err := service.GetTokens(userID, "")
	require.NoError(t, err)
	_, err = service.GetTokens(userID, "")
	require.NoError(t, err)
	_, err = service.GetTokens(other, "")
	require.NoError(t, err)

	err = service.SignOut(userID)
	require.NoError(t, err)

	assert.Len(t, repository.tokens, 1)
	_, err = service.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	assert.True(t, errdef.IsUnauthorized(err))
}

func TestTokenService_ValidateAccessToken_Invalid(t *testing.T) {
	service := newTestService(newFakeRepository())

	_, err := service.ValidateAccessToken("not-a-token")

	assert.True(t, errdef.IsUnauthorized(err))
}
