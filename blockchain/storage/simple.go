package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// SimpleKV is a map backed KV. It is not safe for concurrent use.
type SimpleKV struct {
	Internal map[string]interface{}
}

func NewSimpleKV() *SimpleKV {
	return &SimpleKV{Internal: make(map[string]interface{})}
}

func (skv *SimpleKV) Get(key string) (interface{}, error) {
	value, ok := skv.Internal[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return value, nil
}

func (skv *SimpleKV) Put(key string, value interface{}) error {
	skv.Internal[key] = value
	return nil
}

func (skv *SimpleKV) Del(key string) error {
	_, ok := skv.Internal[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	delete(skv.Internal, key)
	return nil
}

func (skv *SimpleKV) Len() int {
	return len(skv.Internal)
}

func (skv *SimpleKV) Copy() KV {
	ret := &SimpleKV{Internal: make(map[string]interface{}, len(skv.Internal))}
	for key, value := range skv.Internal {
		ret.Internal[key] = value
	}
	return ret
}

func (skv *SimpleKV) keys() []string {
	keys := make([]string, 0, len(skv.Internal))
	for key := range skv.Internal {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (skv *SimpleKV) String() string {
	entries := make([]string, 0, len(skv.Internal))
	for _, key := range skv.keys() {
		entries = append(entries, fmt.Sprintf("%s->%v", key, skv.Internal[key]))
	}
	return "{" + strings.Join(entries, ",") + "}"
}

func (skv *SimpleKV) Hash() string {
	h := sha256.New()
	for _, key := range skv.keys() {
		fmt.Fprintf(h, "%s=%v;", key, skv.Internal[key])
	}
	return hex.EncodeToString(h.Sum(nil))
}
