package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/gpu-reservation-poc/pkg/contracts/events"
)

// RedisCache guarda a última chamada de cada usuário
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// Key gera a chave Redis da última chamada de um usuário
func Key(userID string) string { return "gpuapi:last_call:" + userID }

// SetLast sobrescreve a última chamada do usuário
func (r *RedisCache) SetLast(ctx context.Context, e events.APICallRecorded) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, Key(e.UserID), b, r.TTL).Err()
}

// GetLast devolve (evento, true) se houver registro para o usuário
func (r *RedisCache) GetLast(ctx context.Context, userID string) (events.APICallRecorded, bool, error) {
	var e events.APICallRecorded
	b, err := r.Client.Get(ctx, Key(userID)).Bytes()
	if err == redis.Nil {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	return e, true, json.Unmarshal(b, &e)
}
