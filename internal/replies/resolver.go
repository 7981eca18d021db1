package replies

import (
	"math/rand/v2"
	"strings"
)

// Resolve matches msg against the tables and returns a canned reply.
//
// Matching runs in strict order, short-circuiting on the first hit:
//  1. the trimmed, lower-cased message is compared for equality against
//     each topic key, in authored order;
//  2. each casual key is checked as a whole word of, then a substring in,
//     the normalized message, in authored order.
//
// ok is false when nothing matched; callers then fall through to the
// external model with the ORIGINAL, non-normalized text. An empty or
// whitespace-only message never reaches the resolver — the service rejects
// it first.
func (t *Table) Resolve(msg string) (reply string, ok bool) {
	norm := strings.ToLower(strings.TrimSpace(msg))
	if norm == "" {
		return "", false
	}

	for _, topic := range t.Topics {
		if norm == topic.Key {
			return pick(topic.Replies), true
		}
	}

	words := strings.Fields(norm)
	for _, c := range t.Casual {
		if containsWord(words, c.Key) || strings.Contains(norm, c.Key) {
			return pick(c.Replies), true
		}
	}

	return "", false
}

// TopicKeys returns the topic keys in authored order. The client uses them
// for its quick-reply buttons, one button per key.
func (t *Table) TopicKeys() []string {
	keys := make([]string, len(t.Topics))
	for i, topic := range t.Topics {
		keys[i] = topic.Key
	}
	return keys
}

// pick returns one candidate uniformly at random. Single-element lists are
// returned directly, so a topic authored as one fixed string stays fixed.
func pick(cs Candidates) string {
	switch len(cs) {
	case 0:
		return ""
	case 1:
		return cs[0]
	default:
		return cs[rand.IntN(len(cs))]
	}
}

func containsWord(words []string, key string) bool {
	for _, w := range words {
		if w == key {
			return true
		}
	}
	return false
}
