// Package inference implements the client for the hosted text-generation
// endpoint used when no canned reply matches.
//
// The wire contract is the HuggingFace Inference API shape: a JSON POST of
// {"inputs": <text>} with a bearer token, answered by either a list whose
// first element carries "generated_text" or an object carrying that field
// directly. Everything heterogeneous about the upstream is normalized here;
// callers only ever see a plain reply string or one of two sentinel errors.
//
// Failure policy: no retries, at most one upstream call per chat turn.
// Upstream error bodies are logged server-side and never surface to users.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zenbotlabs/zenbot-backend/internal/config"
)

var (
	// ErrMissingToken means no API token is configured. Surfaced as a 500
	// on the first chat attempt that needs the upstream model; never a
	// start-up failure.
	ErrMissingToken = errors.New("inference api token not configured")

	// ErrUnavailable covers timeouts, transport errors, and non-2xx
	// upstream statuses. The handler maps it to 503 with a fixed friendly
	// message.
	ErrUnavailable = errors.New("inference endpoint unavailable")
)

// apologyReply is returned as a SUCCESSFUL reply when the upstream answered
// but the generated text is absent, empty, or not a string.
const apologyReply = "Sorry, I couldn't generate a response."

// generatePayload is the request body for the text-generation endpoint.
type generatePayload struct {
	Inputs string `json:"inputs"`
}

// generated mirrors the field we extract from either response shape.
type generated struct {
	GeneratedText string `json:"generated_text"`
}

// Client posts chat messages to a configured text-generation model.
// Safe for concurrent use.
type Client struct {
	http     *http.Client
	endpoint string // full model URL, e.g. ".../models/gpt2"
	token    string
	template string // optional prompt template with a %s slot
}

// NewClient builds a Client from the inference configuration. The HTTP
// client's timeout bounds every Generate call in addition to the caller's
// context.
func NewClient(cfg config.InferenceConfig) *Client {
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		endpoint: strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Model,
		token:    cfg.APIToken,
		template: cfg.PromptTemplate,
	}
}

// Generate posts message (optionally wrapped in the prompt template) and
// returns the normalized generated text.
//
// The returned string is always safe to show to the user: a usable upstream
// answer is trimmed (and stripped of the prompt prefix when templated); an
// unusable one degrades to a fixed apology. Errors are limited to
// ErrMissingToken and ErrUnavailable.
func (c *Client) Generate(ctx context.Context, message string) (string, error) {
	tr := otel.Tracer("inference/Client")
	ctx, span := tr.Start(ctx, "Generate")
	defer span.End()

	if c.token == "" {
		return "", ErrMissingToken
	}

	prompt := message
	if c.template != "" {
		prompt = fmt.Sprintf(c.template, message)
	}

	body, err := json.Marshal(generatePayload{Inputs: prompt})
	if err != nil {
		return "", ErrUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", ErrUnavailable
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	span.SetAttributes(attribute.String("inference.endpoint", c.endpoint))

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeout and transport failures land here; detail stays in logs.
		log.Error().Err(err).Str("endpoint", c.endpoint).Msg("inference request failed")
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("inference response read failed")
		return "", ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().Int("status", resp.StatusCode).Str("body", truncateForLog(raw)).Msg("inference upstream error")
		return "", ErrUnavailable
	}

	text := extractGeneratedText(raw)
	if text == "" {
		return apologyReply, nil
	}
	if c.template != "" {
		text = strings.TrimPrefix(text, prompt)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apologyReply, nil
	}
	return text, nil
}

// extractGeneratedText accepts either response shape:
//
//	[{"generated_text": "..."}]   or   {"generated_text": "..."}
//
// and returns the field, or "" when absent or malformed.
func extractGeneratedText(raw []byte) string {
	var list []generated
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 {
			return list[0].GeneratedText
		}
		return ""
	}
	var obj generated
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.GeneratedText
	}
	return ""
}

// truncateForLog caps logged upstream bodies at 1 KiB.
func truncateForLog(b []byte) string {
	const max = 1 << 10
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "…"
}
