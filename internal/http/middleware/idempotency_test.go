package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// idemRouter wires the validator in front of a chat endpoint that reports
// what the middleware stashed in the context.
func idemRouter(opts IdempotencyOptions, lookup IdempotencyLookup, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, h := range pre {
		r.Use(h)
	}
	r.Use(IdempotencyValidator(opts, lookup))
	r.POST("/api/chat", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{
			"key":    key,
			"replay": IsReplay(c),
			"bypass": IsRateBypass(c),
		})
	})
	return r
}

func postChat(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyContextHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected no key on a fresh context, got %q", k)
	}
	if IsReplay(c) {
		t.Fatal("fresh context must not read as a replay")
	}

	c.Set(ctxKeyIdemKey, 77) // wrong type is treated as absent
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatal("non-string key value should read as absent")
	}

	c.Set(ctxKeyIdemReplay, true)
	if !IsReplay(c) {
		t.Fatal("expected replay flag to read back true")
	}
	c.Set(ctxKeyIdemReplay, "true")
	if IsReplay(c) {
		t.Fatal("non-bool replay value should read as false")
	}

	if got := userIDFromCtx(c); got != "demo-user" {
		t.Fatalf("expected demo-user fallback without identity, got %q", got)
	}
	c.Set(ContextUserID, "acct-31")
	if got := userIDFromCtx(c); got != "acct-31" {
		t.Fatalf("expected acct-31, got %q", got)
	}
	c.Set(ContextUserID, 31)
	if got := userIDFromCtx(c); got != "demo-user" {
		t.Fatalf("wrong-typed user id should fall back to demo-user, got %q", got)
	}
}

func TestIdempotencyValidatorNoHeader(t *testing.T) {
	called := false
	lookup := func(_ context.Context, _, _ string, _ time.Time) (bool, error) {
		called = true
		return false, nil
	}
	w := postChat(idemRouter(IdempotencyOptions{}, lookup), "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if called {
		t.Fatal("storage must not be consulted when the header is missing")
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["key"] != "" || body["replay"] != false {
		t.Fatalf("no key should be stashed without the header: %v", body)
	}
}

func TestIdempotencyValidatorRejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"over max length", IdempotencyOptions{MaxLen: 8}, "turn-123456789"},
		{"pattern mismatch", IdempotencyOptions{Pattern: regexp.MustCompile(`^turn-[0-9]+$`)}, "turn-abc"},
		{"default pattern rejects spaces", IdempotencyOptions{}, "turn 9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(idemRouter(tt.opts, nil), tt.key)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" {
				t.Fatalf("unexpected error envelope: %v", body)
			}
		})
	}
}

func TestIdempotencyValidatorStashesKeyWithoutLookup(t *testing.T) {
	w := postChat(idemRouter(IdempotencyOptions{}, nil), "turn-4f.2")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["key"] != "turn-4f.2" {
		t.Fatalf("expected stashed key turn-4f.2, got %v", body["key"])
	}
	if body["replay"] != false || body["bypass"] != false {
		t.Fatalf("nil lookup must not mark a replay: %v", body)
	}
}

func TestIdempotencyValidatorLookup(t *testing.T) {
	t.Run("miss is a fresh turn", func(t *testing.T) {
		lookup := func(_ context.Context, userID, key string, now time.Time) (bool, error) {
			if userID != "demo-user" {
				t.Fatalf("expected demo-user fallback without identity, got %q", userID)
			}
			if key != "turn-1" || now.IsZero() {
				t.Fatalf("lookup args not populated: key=%q now=%v", key, now)
			}
			return false, nil
		}
		w := postChat(idemRouter(IdempotencyOptions{}, lookup), "turn-1")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body["replay"] != false || body["bypass"] != false {
			t.Fatalf("a miss must not set replay flags: %v", body)
		}
	})

	t.Run("hit marks replay for the identified user", func(t *testing.T) {
		identify := func(c *gin.Context) { c.Set(ContextUserID, "acct-9c"); c.Next() }
		lookup := func(_ context.Context, userID, key string, _ time.Time) (bool, error) {
			if userID != "acct-9c" {
				t.Fatalf("lookup must see the identified user, got %q", userID)
			}
			if key != "turn-9" {
				t.Fatalf("unexpected key: %q", key)
			}
			return true, nil
		}
		w := postChat(idemRouter(IdempotencyOptions{}, lookup, identify), "turn-9")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body["replay"] != true || body["bypass"] != true {
			t.Fatalf("a hit must set replay and rate bypass: %v", body)
		}
	})

	t.Run("lookup error does not block the turn", func(t *testing.T) {
		lookup := func(_ context.Context, _, _ string, _ time.Time) (bool, error) {
			return false, context.DeadlineExceeded
		}
		w := postChat(idemRouter(IdempotencyOptions{}, lookup), "turn-err")
		if w.Code != http.StatusOK {
			t.Fatalf("a failed replay check must not fail the request, got %d", w.Code)
		}
	})
}
