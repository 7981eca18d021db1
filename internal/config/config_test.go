package config

import (
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/") // no leading slash + trailing slash -> "/api"

	// App
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("PERSIST_CANNED", "off")
	t.Setenv("SERVE_UI", "0")

	// Auth + inference
	t.Setenv("JWT_SECRET", "topsecret")
	t.Setenv("JWT_TTL", "48h")
	t.Setenv("HF_MODEL", "distilgpt2")
	t.Setenv("HF_TIMEOUT", "5s")
	t.Setenv("HF_PROMPT_TEMPLATE", "You are ZenBot. %s")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("server settings not applied: %+v", cfg)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want normalized release", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty {
		t.Fatalf("logging settings: level=%q pretty=%v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.APIBasePath != "/api" {
		t.Fatalf("APIBasePath = %q, want /api", cfg.APIBasePath)
	}
	if cfg.PersistCanned || cfg.ServeUI {
		t.Fatalf("bool flags not applied: persist=%v ui=%v", cfg.PersistCanned, cfg.ServeUI)
	}
	if cfg.JWT.Secret != "topsecret" || cfg.JWT.TTL != 48*time.Hour {
		t.Fatalf("jwt settings: %+v", cfg.JWT)
	}
	if cfg.Inference.Model != "distilgpt2" || cfg.Inference.Timeout != 5*time.Second {
		t.Fatalf("inference settings: %+v", cfg.Inference)
	}
	if !strings.Contains(cfg.Inference.PromptTemplate, "%s") {
		t.Fatalf("prompt template lost the placeholder: %q", cfg.Inference.PromptTemplate)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting defaults not used on parse failure: rps=%v burst=%d", cfg.RateRPS, cfg.RateBurst)
	}
	if got := cfg.CORS.AllowedOrigins; len(got) != 2 || got[0] != "https://a.com" || got[1] != "http://b" {
		t.Fatalf("CORS origins = %v", got)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security settings: %+v", cfg.Security)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Insecure || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel settings: %+v", cfg.OTEL)
	}
}

func TestLoad_Defaults_SevenDayTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.JWT.TTL != 7*24*time.Hour {
		t.Fatalf("JWT TTL default = %v, want 168h", cfg.JWT.TTL)
	}
	if cfg.Inference.APIToken != "" {
		t.Fatalf("inference token should default to empty, got %q", cfg.Inference.APIToken)
	}
	if cfg.APIBasePath != "/api" {
		t.Fatalf("APIBasePath default = %q", cfg.APIBasePath)
	}
	if !cfg.PersistCanned {
		t.Fatalf("PersistCanned should default to true")
	}
}

// --- Validation failures ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{}},
		{"bad log level", map[string]string{"JWT_SECRET": "s", "LOG_LEVEL": "chatty"}},
		{"zero timeout", map[string]string{"JWT_SECRET": "s", "READ_TIMEOUT": "-1s"}},
		{"template without slot", map[string]string{"JWT_SECRET": "s", "HF_PROMPT_TEMPLATE": "no placeholder"}},
		{"negative rps", map[string]string{"JWT_SECRET": "s", "RATE_RPS": "-2"}},
		{"sample ratio out of range", map[string]string{"JWT_SECRET": "s", "OTEL_TRACES_SAMPLER_ARG": "1.5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail for %s", tc.name)
			}
		})
	}
}

// --- helpers ---

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api/":   "/api",
		" /api/ ": "/api",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
