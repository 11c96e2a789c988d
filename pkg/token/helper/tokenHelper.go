package helper

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateAccessToken signs a token whose subject is the hex encoded user id.
func GenerateAccessToken(userID primitive.ObjectID, secretKey string, expirationInSeconds int) (string, error) {
	unixTime := time.Now().Unix()
	tokenExpiration := unixTime + int64(expirationInSeconds)

	token := jwt.New()

	err := token.Set(jwt.IssuedAtKey, unixTime)
	if err != nil {
		return "", err
	}

	err = token.Set(jwt.ExpirationKey, tokenExpiration)
	if err != nil {
		return "", err
	}

	err = token.Set(jwt.SubjectKey, userID.Hex())
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secretKey)))
	if err != nil {
		return "", err
	}

	return string(signed), nil
}

// ValidateAccessToken verifies the signature and expiry of tokenString and returns its subject.
func ValidateAccessToken(tokenString string, secretKey string) (primitive.ObjectID, error) {
	token, err := jwt.Parse([]byte(tokenString), jwt.WithKey(jwa.HS256, []byte(secretKey)))
	if err != nil {
		return primitive.NilObjectID, err
	}

	return UserIDFromToken(token)
}

// UserIDFromToken returns the user id carried in the subject of an already verified token.
func UserIDFromToken(token jwt.Token) (primitive.ObjectID, error) {
	if token.Subject() == "" {
		return primitive.NilObjectID, fmt.Errorf("%s not found in claims", jwt.SubjectKey)
	}

	id, err := primitive.ObjectIDFromHex(token.Subject())
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid subject %q: %v", token.Subject(), err)
	}

	return id, nil
}

type refreshToken struct {
	SignedString string
	TokenId      string
	ExpiresIn    time.Duration
}

//goland:noinspection GoExportedFuncWithUnexportedType
func GenerateRefreshToken(userID primitive.ObjectID, secretKey string, expirationInSeconds int) (*refreshToken, error) {
	currentTime := time.Now()
	tokenExpiration := currentTime.Add(time.Duration(expirationInSeconds) * time.Second)

	token := jwt.New()

	err := token.Set("uid", userID.Hex())
	if err != nil {
		return nil, err
	}

	tokenId := uuid.NewString()
	err = token.Set(jwt.JwtIDKey, tokenId)
	if err != nil {
		return nil, err
	}

	err = token.Set(jwt.ExpirationKey, tokenExpiration.Unix())
	if err != nil {
		return nil, err
	}

	err = token.Set(jwt.IssuedAtKey, currentTime.Unix())
	if err != nil {
		return nil, err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secretKey)))
	if err != nil {
		return nil, err
	}

	return &refreshToken{
		SignedString: string(signed),
		TokenId:      tokenId,
		ExpiresIn:    tokenExpiration.Sub(currentTime),
	}, nil
}

type refreshTokenClaims struct {
	UserID    primitive.ObjectID
	ID        string
	ExpiresIn time.Duration
	IssuedAt  int64
}

//goland:noinspection GoExportedFuncWithUnexportedType
func ValidateRefreshToken(tokenString string, secretKey string) (*refreshTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256, []byte(secretKey)),
	)
	if err != nil {
		return nil, err
	}

	uid, ok := token.Get("uid")
	if !ok {
		return nil, errors.New("uid not found in claims")
	}

	userID, err := primitive.ObjectIDFromHex(fmt.Sprintf("%v", uid))
	if err != nil {
		return nil, fmt.Errorf("invalid uid: %v", err)
	}

	if token.JwtID() == "" {
		return nil, fmt.Errorf("%s not found in claims", jwt.JwtIDKey)
	}

	return &refreshTokenClaims{
		UserID:    userID,
		ID:        token.JwtID(),
		ExpiresIn: time.Until(token.Expiration()),
		IssuedAt:  token.IssuedAt().Unix(),
	}, nil
}
