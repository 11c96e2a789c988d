package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(redis *redis.Client) *redisRepository {
	return &redisRepository{redis: redis}
}

var errTokenNotFound = errors.New("refresh token not found")

type redisRepository struct {
	redis *redis.Client
}

func refreshTokenKey(userID primitive.ObjectID, tokenID string) string {
	return fmt.Sprintf("refresh:%s:%s", userID.Hex(), tokenID)
}

func (r redisRepository) SetRefreshToken(userID primitive.ObjectID, tokenID string, expiresIn time.Duration) error {
	err := r.redis.Set(refreshTokenKey(userID, tokenID), 0, expiresIn).Err()
	if err != nil {
		return fmt.Errorf("could not set refresh token to redis for user %s: %v", userID.Hex(), err)
	}
	return nil
}

func (r redisRepository) HasRefreshToken(userID primitive.ObjectID, tokenID string) (bool, error) {
	n, err := r.redis.Exists(refreshTokenKey(userID, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("could not look up refresh token of user %s: %v", userID.Hex(), err)
	}
	return n > 0, nil
}

func (r redisRepository) DeleteRefreshToken(userID primitive.ObjectID, tokenID string) error {
	n, err := r.redis.Del(refreshTokenKey(userID, tokenID)).Result()
	if err != nil {
		return fmt.Errorf("could not delete refresh token of user %s: %v", userID.Hex(), err)
	}
	if n < 1 {
		return errTokenNotFound
	}
	return nil
}

func (r redisRepository) DeleteRefreshTokens(userID primitive.ObjectID) error {
	keys, err := r.redis.Keys(refreshTokenKey(userID, "*")).Result()
	if err != nil {
		return fmt.Errorf("could not list refresh tokens of user %s: %v", userID.Hex(), err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.redis.Del(keys...).Err(); err != nil {
		return fmt.Errorf("could not delete refresh tokens of user %s: %v", userID.Hex(), err)
	}
	return nil
}
