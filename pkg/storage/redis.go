package storage

import (
	"fmt"

	"github.com/go-redis/redis"
)

func NewRedis(address string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: "",
		DB:       0,
	})

	if _, err := client.Ping().Result(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %v", address, err)
	}

	return client, nil
}
