package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisCodeLimiterBlocksRepeatSends(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := NewRedisCodeLimiter(mr.Addr(), "", time.Minute)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("first allow: %v", err)
	}
	if !ok {
		t.Fatalf("first send blocked")
	}
	ok, err = limiter.Allow(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("second allow: %v", err)
	}
	if ok {
		t.Fatalf("repeat send within window not blocked")
	}
	// a different account is unaffected
	ok, err = limiter.Allow(ctx, "bob@example.com")
	if err != nil || !ok {
		t.Fatalf("other account blocked: %v %v", ok, err)
	}

	mr.FastForward(2 * time.Minute)
	ok, err = limiter.Allow(ctx, "alice@example.com")
	if err != nil || !ok {
		t.Fatalf("send after window blocked: %v %v", ok, err)
	}
}
