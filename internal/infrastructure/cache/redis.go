package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// MustOpenRedis is OpenRedis for process start-up: a failure is fatal.
func MustOpenRedis(addr string, db int, log *zap.Logger) *redis.Client {
	r, err := OpenRedis(addr, db)
	if err != nil {
		log.Fatal("redis unavailable", zap.String("addr", addr), zap.Error(err))
	}
	log.Info("redis: connected", zap.String("addr", addr), zap.Int("db", db))
	return r
}
