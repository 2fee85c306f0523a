package rediskv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"loanledger/internal/domain/store"
)

// Store implements store.Store on redis string keys under a prefix.
type Store struct {
	rdb    *redis.Client
	prefix string
}

func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

var (
	_ store.Store       = (*Store)(nil)
	_ store.Conditional = (*Store)(nil)
)

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &store.PersistenceError{Op: "get", Key: key, Err: err}
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return &store.PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *Store) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.prefix+key, value, 0).Result()
	if err != nil {
		return false, &store.PersistenceError{Op: "setnx", Key: key, Err: err}
	}
	return ok, nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return &store.PersistenceError{Op: "remove", Key: key, Err: err}
	}
	return nil
}
