package cache

import (
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	CHALLENGE_TTL = time.Minute * 10
)

// ChallengeCache holds the nonce of every outstanding session-auth challenge,
// keyed by session id. Challenges are ephemeral; an expired entry means the
// client has to request a fresh challenge via session status.
type ChallengeCache struct {
	nonceCache *ttlcache.Cache[string, string]
}

func NewChallengeCache(ttl time.Duration) *ChallengeCache {
	if ttl <= 0 {
		ttl = CHALLENGE_TTL
	}

	// the TTL is absolute: verification reads must not keep a nonce alive
	cache := ttlcache.New(
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	c := &ChallengeCache{
		nonceCache: cache,
	}

	go cache.Start()
	return c
}

// Put stores the challenge nonce for a session, replacing any previous one.
func (c *ChallengeCache) Put(sessionID string, nonce string) {
	c.nonceCache.Set(sessionID, nonce, ttlcache.DefaultTTL)
}

// Nonce returns the outstanding nonce for a session.
func (c *ChallengeCache) Nonce(sessionID string) (string, error) {
	item := c.nonceCache.Get(sessionID)
	if item == nil {
		return "", fmt.Errorf("no challenge found for session %s", sessionID)
	}

	return item.Value(), nil
}

func (c *ChallengeCache) Stop() {
	c.nonceCache.Stop()
}
