package dao

import (
	"context"
	"fmt"
	"time"

	"zcatch-server/pkg/config"

	"github.com/redis/go-redis/v9"
)

// RDB 为 nil 时不校验 room token
var RDB *redis.Client

const KeyRoomPrefix = "room:"

func InitRedis(cfg config.RedisConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return fmt.Errorf("redis connect: %w", err)
	}
	RDB = client
	return nil
}

// ValidateRoomToken checks whether the given token matches the stored room token.
func ValidateRoomToken(ctx context.Context, roomID, token string) (bool, error) {
	if RDB == nil {
		return true, nil
	}
	val, err := RDB.HGet(ctx, KeyRoomPrefix+roomID, "token").Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == token, nil
}
