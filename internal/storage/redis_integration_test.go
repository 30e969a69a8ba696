//go:build integration

package storage

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("ATELIER_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	r, err := OpenRedis(context.Background(), addr, "atelier-test:")
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	if err := r.SetMany(map[string]string{"comments": "[]", "reviews": `[{"id":"r1"}]`}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}

	v, err := r.Get("reviews")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != `[{"id":"r1"}]` {
		t.Errorf("Get(reviews) = %q", v)
	}

	if _, err := r.Get("does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
