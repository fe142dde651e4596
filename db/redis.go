package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"BuggyFM/config"
	"BuggyFM/logger"
)

var RedisClient *redis.Client

// ConnectRedis initializes the Redis connection backing the library blobs.
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis")
	return nil
}

// CloseRedis closes the Redis connection.
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// TestRedis exercises set/get/del once, for the connectivity check command.
func TestRedis() error {
	if RedisClient == nil {
		return fmt.Errorf("redis client not initialized")
	}
	ctx := context.Background()

	if err := RedisClient.Set(ctx, "buggyfm:healthcheck", "ok", time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set redis key: %w", err)
	}
	val, err := RedisClient.Get(ctx, "buggyfm:healthcheck").Result()
	if err != nil {
		return fmt.Errorf("failed to get redis key: %w", err)
	}
	if val != "ok" {
		return fmt.Errorf("unexpected value from redis: %s", val)
	}
	if err := RedisClient.Del(ctx, "buggyfm:healthcheck").Err(); err != nil {
		return fmt.Errorf("failed to delete redis key: %w", err)
	}
	return nil
}
