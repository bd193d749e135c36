package cache_test

import (
	"testing"
	"time"

	"github.com/solbridge-labs/solbridge/cache"
)

func Test_ChallengeCache_PutReplacesNonce(t *testing.T) {
	c := cache.NewChallengeCache(0)
	defer c.Stop()

	c.Put("session-1", "nonce-1")
	c.Put("session-1", "nonce-2")

	nonce, err := c.Nonce("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nonce != "nonce-2" {
		t.Errorf("expected nonce-2, got %s", nonce)
	}
}

func Test_ChallengeCache_MissingSession(t *testing.T) {
	c := cache.NewChallengeCache(0)
	defer c.Stop()

	if _, err := c.Nonce("unknown"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func Test_ChallengeCache_ReadsDoNotExtendTTL(t *testing.T) {
	c := cache.NewChallengeCache(time.Millisecond * 100)
	defer c.Stop()

	c.Put("session-1", "nonce-1")

	// read more often than the TTL; the nonce must still expire on schedule
	deadline := time.After(time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("nonce never expired despite steady reads")
		case <-time.After(time.Millisecond * 25):
		}
		if _, err := c.Nonce("session-1"); err != nil {
			return
		}
	}
}
