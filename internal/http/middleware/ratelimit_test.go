package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func limiterCtx(t *testing.T) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "41000")
	c.Request = req
	return c
}

func TestKeyByUserOrIP(t *testing.T) {
	c := limiterCtx(t)

	// Anonymous callers bucket by address.
	if key := KeyByUserOrIP()(c); !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("expected ip-keyed bucket, got %q", key)
	}

	// An authenticated caller gets their own bucket.
	c.Set(ContextUserID, "acct-9c")
	if key := KeyByUserOrIP()(c); key != "user:acct-9c" {
		t.Fatalf("expected user-keyed bucket, got %q", key)
	}
}

func TestRateLimiter_BucketLifecycle(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst <= 0 must coerce to 1, got %d", rl.burst)
	}

	lim := rl.getVisitor("user:a")
	if lim == nil {
		t.Fatal("expected a bucket")
	}
	if rl.getVisitor("user:a") != lim {
		t.Fatal("repeat lookup must reuse the same bucket")
	}

	// Seed a long-idle bucket and push the lookup counter to the sweep
	// threshold; the next lookup must evict it.
	rl.ttl = time.Nanosecond
	rl.mu.Lock()
	rl.visitors["user:stale"] = &visitor{
		limiter:  rate.NewLimiter(1, 1),
		lastSeen: time.Now().Add(-time.Hour),
	}
	rl.cleanupN = 4999
	rl.mu.Unlock()

	_ = rl.getVisitor("user:fresh")

	rl.mu.Lock()
	_, stale := rl.visitors["user:stale"]
	_, fresh := rl.visitors["user:fresh"]
	rl.mu.Unlock()
	if stale {
		t.Fatal("idle bucket survived the sweep")
	}
	if !fresh {
		t.Fatal("fresh bucket missing after the sweep")
	}
}

func TestIsRateBypass(t *testing.T) {
	c := limiterCtx(t)

	if IsRateBypass(c) {
		t.Fatal("bypass must default to false")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatal("bypass flag not honored")
	}
	// A mistyped value reads as false rather than panicking.
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatal("non-bool flag must read as false")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// One token, slow refill: the second immediate request is denied.
	rl := NewRateLimiter(1.0, 1, KeyByUserOrIP())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header(requestIDHeader, "turn-1"); c.Next() })
	r.Use(rl.Handler())
	r.POST("/api/chat", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"reply": "Hey!"}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first turn should pass, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second turn should be limited, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["code"] != "rate_limited" || body["message"] != "rate limit exceeded" {
		t.Fatalf("unexpected envelope: %v", body)
	}

	// A flagged replay skips the drained bucket entirely.
	replay := gin.New()
	replay.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	replay.Use(rl.Handler())
	replay.POST("/api/chat", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"reply": "Hey!"}) })

	w = httptest.NewRecorder()
	replay.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("replay should bypass the limiter, got %d", w.Code)
	}
}
