package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL bounds how long an unclaimed payload survives. Zero means no
	// expiry.
	TTL time.Duration
}

// RedisStore persists envelopes in Redis so queued payloads survive a
// process restart.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "luna:payload:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Put(ctx context.Context, envelope Envelope) error {
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := s.client.Set(ctx, s.key(envelope.JobID), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("store envelope: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (Envelope, error) {
	encoded, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Envelope{}, ErrNotFound
		}
		return Envelope{}, fmt.Errorf("fetch envelope: %w", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(encoded, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return envelope, nil
}

func (s *RedisStore) Delete(ctx context.Context, jobID string) error {
	removed, err := s.client.Del(ctx, s.key(jobID)).Result()
	if err != nil {
		return fmt.Errorf("delete envelope: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) key(jobID string) string {
	return s.keyPrefix + jobID
}
