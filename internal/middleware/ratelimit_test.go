package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	l := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected below limit", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("request above limit allowed")
	}
	// Other keys are unaffected.
	if !l.Allow("5.6.7.8") {
		t.Fatal("separate key rejected")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	l := NewRateLimiter(1, 10*time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("first request rejected")
	}
	if l.Allow("k") {
		t.Fatal("second request within window allowed")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("request after window expiry rejected")
	}
}
