package storage

import (
	"errors"
)

var ErrKeyNotFound error = errors.New("key not found")

// KV is a flat key-value store. Values are stored as given; callers store
// values, not pointers, when they rely on Copy for isolation.
type KV interface {
	Get(key string) (interface{}, error)
	Put(key string, value interface{}) error
	Del(key string) error
	Len() int
	// Copy returns an independent store with the same entries.
	Copy() KV
	// Hash digests the entries, independent of insertion order.
	Hash() string
}

type KVFactory func() KV

func CreateSimpleKV() KV {
	return NewSimpleKV()
}
