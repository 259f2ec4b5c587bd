// File path: internal/router/cache_test.go
package router

import (
	"testing"
	"time"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	cache := newTTLCache(time.Minute)
	if _, ok := cache.get("missing"); ok {
		t.Fatalf("empty cache should miss")
	}
	cache.set("k", "v")
	value, ok := cache.get("k")
	if !ok || value != "v" {
		t.Fatalf("expected hit with %q, got %v %v", "v", value, ok)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	cache := newTTLCache(20 * time.Millisecond)
	cache.set("k", "v")
	time.Sleep(40 * time.Millisecond)
	if _, ok := cache.get("k"); ok {
		t.Fatalf("expired entry should miss")
	}
}

func TestTTLCacheOverwrite(t *testing.T) {
	cache := newTTLCache(time.Minute)
	cache.set("k", "first")
	cache.set("k", "second")
	value, _ := cache.get("k")
	if value != "second" {
		t.Fatalf("last write should win, got %v", value)
	}
}
