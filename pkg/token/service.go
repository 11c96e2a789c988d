package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/pkg/token/helper"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(
	logger *slog.Logger,
	tokenRepository repository,
	accessTokenSecretKey string,
	accessTokenExpirationSeconds int,
	refreshTokenSecretKey string,
	refreshTokenExpirationSeconds int,
) *tokenService {
	return &tokenService{
		logger:                        logger,
		repository:                    tokenRepository,
		accessTokenSecretKey:          accessTokenSecretKey,
		accessTokenExpirationSeconds:  accessTokenExpirationSeconds,
		refreshTokenSecretKey:         refreshTokenSecretKey,
		refreshTokenExpirationSeconds: refreshTokenExpirationSeconds,
	}
}

type repository interface {
	SetRefreshToken(userID primitive.ObjectID, tokenID string, expiresIn time.Duration) error
	HasRefreshToken(userID primitive.ObjectID, tokenID string) (bool, error)
	DeleteRefreshToken(userID primitive.ObjectID, tokenID string) error
	DeleteRefreshTokens(userID primitive.ObjectID) error
}

// Tokens issued on sign-in and refresh
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    uint   `json:"expiresIn"`
}

type RefreshTokenData struct {
	SignedToken string
	ID          uuid.UUID
	UserID      primitive.ObjectID
}

type tokenService struct {
	logger                        *slog.Logger
	repository                    repository
	accessTokenSecretKey          string
	accessTokenExpirationSeconds  int
	refreshTokenSecretKey         string
	refreshTokenExpirationSeconds int
}

// GetTokens issues a new token pair for userID. A non-empty previousRefreshTokenID is revoked first
// so a refresh token can only be used once.
func (t tokenService) GetTokens(userID primitive.ObjectID, previousRefreshTokenID string) (*Tokens, error) {
	if previousRefreshTokenID != "" {
		if err := t.repository.DeleteRefreshToken(userID, previousRefreshTokenID); err != nil {
			return nil, errdef.NewUnauthorized("could not delete previous refresh token %s of user %s", previousRefreshTokenID, userID.Hex())
		}
	}

	accessToken, err := helper.GenerateAccessToken(userID, t.accessTokenSecretKey, t.accessTokenExpirationSeconds)
	if err != nil {
		return nil, fmt.Errorf("error generating access token for user %s: %v", userID.Hex(), err)
	}

	refreshToken, err := helper.GenerateRefreshToken(userID, t.refreshTokenSecretKey, t.refreshTokenExpirationSeconds)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token for user %s: %v", userID.Hex(), err)
	}

	if err := t.repository.SetRefreshToken(userID, refreshToken.TokenId, refreshToken.ExpiresIn); err != nil {
		return nil, fmt.Errorf("error storing refresh token of user %s: %v", userID.Hex(), err)
	}

	return &Tokens{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		RefreshToken: refreshToken.SignedString,
		ExpiresIn:    uint(t.accessTokenExpirationSeconds),
	}, nil
}

// ValidateAccessToken returns the id of the user the access token was issued to.
func (t tokenService) ValidateAccessToken(tokenString string) (primitive.ObjectID, error) {
	userID, err := helper.ValidateAccessToken(tokenString, t.accessTokenSecretKey)
	if err != nil {
		return primitive.NilObjectID, errdef.NewUnauthorized("token not valid")
	}
	return userID, nil
}

func (t tokenService) ValidateRefreshToken(ctx context.Context, tokenString string) (*RefreshTokenData, error) {
	claims, err := helper.ValidateRefreshToken(tokenString, t.refreshTokenSecretKey)
	if err != nil {
		t.logger.ErrorContext(ctx, "Unable to validate token", "error", err)
		return nil, errdef.NewUnauthorized("unable to verify refresh token")
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		t.logger.ErrorContext(ctx, "Couldn't parse token id", "error", err, "claimsId", claims.ID)
		return nil, errdef.NewUnauthorized("unable to verify refresh token")
	}

	exists, err := t.repository.HasRefreshToken(claims.UserID, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("error looking up refresh token: %v", err)
	}
	if !exists {
		return nil, errdef.NewUnauthorized("refresh token revoked")
	}

	return &RefreshTokenData{
		SignedToken: tokenString,
		ID:          tokenID,
		UserID:      claims.UserID,
	}, nil
}

func (t tokenService) SignOut(userID primitive.ObjectID) error {
	return t.repository.DeleteRefreshTokens(userID)
}
