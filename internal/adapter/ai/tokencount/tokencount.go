// Package tokencount estimates prompt sizes for provider calls.
//
// It uses tiktoken-go with cl100k_base-compatible encodings for every model
// family the service talks to. Counts feed metrics and logs only; they never
// influence routing.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
	// disabled is set once loading an encoding fails so later calls go
	// straight to the character estimate instead of retrying the download.
	disabled bool
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

func (c *Counter) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	name := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[name]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		slog.Debug("falling back to cl100k_base encoding", slog.String("model", model), slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[name] = enc
	return enc, nil
}

// normalizeModelName maps provider model IDs to a tiktoken-compatible name.
// Gemini, Llama, Qwen, DeepSeek and friends are approximated with the GPT-4
// encoding.
func normalizeModelName(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	model = strings.TrimSuffix(model, ":free")
	switch {
	case strings.Contains(model, "gpt-4o"):
		return "gpt-4o"
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		return "gpt-4"
	}
}

// CountTokens counts the tokens of text for model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.encodingFor(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// EstimatePromptTokens returns the token count of a single-message prompt,
// falling back to a rough estimate of four characters per token when no
// encoding can be loaded.
func (c *Counter) EstimatePromptTokens(prompt, model string) int {
	c.mu.RLock()
	disabled := c.disabled
	c.mu.RUnlock()
	if !disabled {
		n, err := c.CountTokens(prompt, model)
		if err == nil {
			// message framing: role + start/end markers + reply priming
			return n + 7
		}
		slog.Warn("token encoding unavailable, using estimate", slog.String("model", model), slog.Any("error", err))
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
	}
	return roughEstimate(prompt)
}

func roughEstimate(s string) int {
	n := utf8.RuneCountInString(s) / 4
	if n == 0 && s != "" {
		n = 1
	}
	return n
}
