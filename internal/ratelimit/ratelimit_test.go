package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quietpost/quietpost/internal/ratelimit"
	"github.com/quietpost/quietpost/internal/ratelimit/memory"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T) (*ratelimit.Limiter, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	store.Now = clock.Now
	return ratelimit.New(store, nil, nil), clock
}

func TestFastWindowLimitsThirdMessage(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if res := l.Check(ctx, 42, ratelimit.Fast); res.Limited {
			t.Fatalf("message %d limited, want admitted", i+1)
		}
	}

	res := l.Check(ctx, 42, ratelimit.Fast)
	if !res.Limited {
		t.Fatal("third message in fast window not limited")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > 2*time.Second {
		t.Errorf("RetryAfter = %v, want in (0s, 2s]", res.RetryAfter)
	}
}

func TestSlowWindowLimitsFourthMessage(t *testing.T) {
	l, clock := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if res := l.Check(ctx, 42, ratelimit.Slow); res.Limited {
			t.Fatalf("message %d limited, want admitted", i+1)
		}
		clock.Advance(5 * time.Second)
	}

	res := l.Check(ctx, 42, ratelimit.Slow)
	if !res.Limited {
		t.Fatal("fourth message in slow window not limited")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > 60*time.Second {
		t.Errorf("RetryAfter = %v, want in (0s, 60s]", res.RetryAfter)
	}
}

func TestWindowExpiryAdmitsAgain(t *testing.T) {
	l, clock := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		l.Check(ctx, 42, ratelimit.Fast)
	}
	if res := l.Check(ctx, 42, ratelimit.Fast); !res.Limited {
		t.Fatal("cap not reached")
	}

	clock.Advance(2100 * time.Millisecond)
	if res := l.Check(ctx, 42, ratelimit.Fast); res.Limited {
		t.Error("message after window expiry still limited")
	}
}

func TestIncrementDoesNotRefreshExpiry(t *testing.T) {
	l, clock := newTestLimiter(t)
	ctx := context.Background()

	// First event opens the window; the second lands late in it. If the
	// increment refreshed the TTL, the window would still be live at
	// t+2.1s.
	l.Check(ctx, 42, ratelimit.Fast)
	clock.Advance(1900 * time.Millisecond)
	l.Check(ctx, 42, ratelimit.Fast)

	clock.Advance(200 * time.Millisecond)
	if res := l.Check(ctx, 42, ratelimit.Fast); res.Limited {
		t.Error("window expiry was refreshed by an increment")
	}
}

func TestSendersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		l.Check(ctx, 42, ratelimit.Fast)
	}
	if res := l.Check(ctx, 42, ratelimit.Fast); !res.Limited {
		t.Fatal("sender 42 not limited")
	}
	if res := l.Check(ctx, 43, ratelimit.Fast); res.Limited {
		t.Error("sender 43 limited by sender 42's window")
	}
}

func TestWindowsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		l.Check(ctx, 42, ratelimit.Fast)
	}
	if res := l.Check(ctx, 42, ratelimit.Fast); !res.Limited {
		t.Fatal("fast window not at cap")
	}
	// The slow window has only seen two events and must still admit.
	if res := l.Check(ctx, 42, ratelimit.Slow); res.Limited {
		t.Error("slow window limited by fast window state")
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (int64, bool, error) {
	return 0, false, errors.New("store unreachable")
}

func (brokenStore) Create(context.Context, string, time.Duration) error {
	return errors.New("store unreachable")
}

func (brokenStore) Incr(context.Context, string) error {
	return errors.New("store unreachable")
}

func (brokenStore) TTL(context.Context, string) (time.Duration, error) {
	return 0, errors.New("store unreachable")
}

func TestFailsOpenWhenStoreUnavailable(t *testing.T) {
	degraded := 0
	l := ratelimit.New(brokenStore{}, nil, func() { degraded++ })
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if res := l.Check(ctx, 42, ratelimit.Fast); res.Limited {
			t.Fatal("limiter did not fail open")
		}
	}
	if degraded != 10 {
		t.Errorf("degraded events = %d, want 10", degraded)
	}
}
