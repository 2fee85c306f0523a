package store

import (
	"context"
	"fmt"
)

// Store is the persisted key-value medium. Values are opaque strings.
type Store interface {
	// Get returns the value under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Conditional is implemented by stores that can write a key only when it
// is absent in one step.
type Conditional interface {
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
}

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Keys are scoped by owner so ledgers never share a key.
func LoansKey(ownerID string) string  { return "loans:" + ownerID }
func AlertsKey(ownerID string) string { return "alerts:" + ownerID }
func NotifiedKey(ownerID, alertID string) string {
	return "notified:" + ownerID + ":" + alertID
}
