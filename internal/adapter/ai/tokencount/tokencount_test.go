package tokencount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeModelName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"gpt-4", "gpt-4"},
		{"openai/gpt-4o-mini", "gpt-4o"},
		{"openai/gpt-3.5-turbo", "gpt-3.5-turbo"},
		{"meta-llama/llama-3.3-70b-instruct:free", "gpt-4"},
		{"gemini-2.5-flash", "gpt-4"},
		{"  DeepSeek/DeepSeek-Chat:free ", "gpt-4"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeModelName(tt.in))
		})
	}
}

func TestRoughEstimate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, roughEstimate(""))
	assert.Equal(t, 1, roughEstimate("hi"))
	assert.Equal(t, 2, roughEstimate("12345678"))
	// runes, not bytes
	assert.Equal(t, 1, roughEstimate("你好你好"))
}

func TestEstimatePromptTokens_DisabledUsesEstimate(t *testing.T) {
	t.Parallel()
	c := NewCounter()
	c.disabled = true
	assert.Equal(t, 3, c.EstimatePromptTokens("abcdefghijkl", "gpt-4"))
}
