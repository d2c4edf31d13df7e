// Package session maps opaque bearer tokens to user ids for the lifetime of a
// login. The store is an in-memory cache with per-entry expiry; a restart
// simply signs everyone out.
package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Store is a threadsafe token store shared by every connection.
type Store struct {
	cacheInstance *gocache.Cache
	ttl           time.Duration
}

// NewStore returns a Store whose tokens expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		cacheInstance: gocache.New(ttl, 10*time.Minute),
		ttl:           ttl,
	}
}

// Create issues a fresh token for the user and returns it.
func (s *Store) Create(userID string) string {
	token := uuid.NewString()
	s.cacheInstance.Set(token, userID, s.ttl)
	return token
}

// Lookup resolves a token to the user id it was issued for, returning whether
// or not the token was found (semantics similar to map).
func (s *Store) Lookup(token string) (string, bool) {
	value, found := s.cacheInstance.Get(token)
	if !found {
		return "", false
	}
	return value.(string), true
}

// Destroy forgets a token. Destroying an unknown token is a no-op.
func (s *Store) Destroy(token string) {
	s.cacheInstance.Delete(token)
}
