package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/RentMatch/internal/domain/principal"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string, p principal.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = remote
	if p != nil {
		req = req.WithContext(principal.NewContext(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	handler := rl.Handler(okHandler())

	for i := range 10 {
		if rec := hit(handler, "192.168.1.1:4000", nil); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 5)
	rl.now = func() time.Time { return now }
	handler := rl.Handler(okHandler())

	for range 5 {
		hit(handler, "192.168.1.1:4000", nil)
	}

	rec := hit(handler, "192.168.1.1:4000", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "RATE_LIMITED" {
		t.Errorf("expected RATE_LIMITED, got %q", body.Code)
	}

	now = now.Add(time.Second)
	if rec := hit(handler, "192.168.1.1:4000", nil); rec.Code != http.StatusOK {
		t.Errorf("expected refill after 1s, got %d", rec.Code)
	}
}

func TestRateLimiterSetsHeaders(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	rec := hit(rl.Handler(okHandler()), "192.168.1.1:4000", nil)

	if rec.Header().Get("X-RateLimit-Remaining") != "9" {
		t.Errorf("expected X-RateLimit-Remaining 9, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec.Header().Get("X-RateLimit-Limit") != "10" {
		t.Errorf("expected X-RateLimit-Limit 10, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }
	handler := rl.Handler(okHandler())
	owner := principal.Owner{UserID: "owner-1", Verified: true}

	for range 2 {
		hit(handler, "10.0.0.1:1", owner)
	}
	if rec := hit(handler, "10.0.0.9:1", owner); rec.Code != http.StatusTooManyRequests {
		t.Errorf("principal bucket should follow the owner across IPs, got %d", rec.Code)
	}
	if rec := hit(handler, "10.0.0.1:1", nil); rec.Code != http.StatusOK {
		t.Errorf("anonymous request from same IP should have its own bucket, got %d", rec.Code)
	}
	if rec := hit(handler, "10.0.0.1:1", principal.Owner{UserID: "owner-2"}); rec.Code != http.StatusOK {
		t.Errorf("other principal should be allowed, got %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }
	handler := rl.Handler(okHandler())

	hit(handler, "10.0.0.1:1", nil)
	now = now.Add(time.Minute)
	hit(handler, "10.0.0.2:1", nil)

	if removed := rl.Cleanup(30 * time.Second); removed != 1 {
		t.Fatalf("expected 1 stale bucket removed, got %d", removed)
	}
	if rl.Len() != 1 {
		t.Fatalf("expected 1 bucket left, got %d", rl.Len())
	}
}
