// Package cache holds a small in-process TTL cache for public read
// responses. It is an optimization only; mutation paths flush the
// affected kind and correctness never depends on a hit.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

type entry struct {
	payload     []byte
	contentType string
	expires     time.Time
}

type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Key builds a cache key from a kind label and the request specifics.
// The hash keeps keys short regardless of path/query length.
func Key(kind string, parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		h.WriteString(p)
		h.WriteString("\x00")
	}
	return fmt.Sprintf("%s:%016x", kind, h.Sum64())
}

func (s *Store) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expires) {
		return nil, "", false
	}
	return e.payload, e.contentType, true
}

func (s *Store) Set(key string, payload []byte, contentType string) {
	s.mu.Lock()
	s.entries[key] = entry{
		payload:     payload,
		contentType: contentType,
		expires:     time.Now().Add(s.ttl),
	}
	s.mu.Unlock()
}

// FlushKind drops every entry for one content kind. Invalidation is
// deliberately coarse; a flushed page rebuilds on the next read.
func (s *Store) FlushKind(kind string) {
	prefix := kind + ":"
	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

// Flush empties the store.
func (s *Store) Flush() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// Len reports the live entry count, expired entries included until
// their next read.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
