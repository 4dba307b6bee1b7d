package middleware

import (
	"testing"
	"time"
)

func TestIPLimiterAllows(t *testing.T) {
	rl := newIPLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("request over the limit should be rejected")
	}
	// Other IPs are independent.
	if !rl.allow("10.0.0.2") {
		t.Fatal("different IP should be allowed")
	}
}

func TestIPLimiterWindowSlides(t *testing.T) {
	rl := newIPLimiter(1, 20*time.Millisecond)

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("second request inside window should be rejected")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.allow("10.0.0.1") {
		t.Fatal("request after window should be allowed")
	}
}

func TestIPLimiterGC(t *testing.T) {
	rl := newIPLimiter(5, 10*time.Millisecond)
	rl.gcEvery = 0

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")
	time.Sleep(20 * time.Millisecond)

	// Next call triggers gc of both idle windows, then records itself.
	rl.allow("10.0.0.3")

	rl.mu.Lock()
	size := len(rl.seen)
	rl.mu.Unlock()
	if size != 1 {
		t.Fatalf("expected 1 tracked IP after gc, got %d", size)
	}
}
