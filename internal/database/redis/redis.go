package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"assessment-service/internal/config"

	"github.com/redis/go-redis/v9"
)

// Connect returns a client after a successful ping.
func Connect(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connect to Redis: %w", err)
	}

	log.Printf("Successfully connected to Redis at %s", cfg.Address)
	return client, nil
}
