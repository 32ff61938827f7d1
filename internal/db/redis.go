package db

import (
	"github.com/Rdeepthiacharya/HerShield/internal/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when no address is configured; the event hub then
// stays process-local.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
