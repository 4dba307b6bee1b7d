package services

import (
	"fmt"
	"testing"
	"time"
)

func TestStatusCachePutGet(t *testing.T) {
	c := newStatusCache(time.Minute, 8)
	c.put("a", "user", "active")

	role, status, ok := c.get("a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if role != "user" || status != "active" {
		t.Fatalf("got (%q, %q), want (user, active)", role, status)
	}

	if _, _, ok := c.get("missing"); ok {
		t.Fatal("expected cache miss for unknown key")
	}
}

func TestStatusCacheExpiry(t *testing.T) {
	c := newStatusCache(10*time.Millisecond, 8)
	c.put("a", "user", "active")

	time.Sleep(20 * time.Millisecond)
	if _, _, ok := c.get("a"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestStatusCacheInvalidate(t *testing.T) {
	c := newStatusCache(time.Minute, 8)
	c.put("a", "admin", "active")
	c.invalidate("a")

	if _, _, ok := c.get("a"); ok {
		t.Fatal("expected invalidated entry to miss")
	}
}

func TestStatusCacheBounded(t *testing.T) {
	max := 4
	c := newStatusCache(time.Minute, max)
	for i := 0; i < max*3; i++ {
		c.put(fmt.Sprintf("user-%d", i), "user", "active")
	}

	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()
	if size > max {
		t.Fatalf("cache holds %d entries, bound is %d", size, max)
	}
}
