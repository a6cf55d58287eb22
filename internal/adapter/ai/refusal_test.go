package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeRefusal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"I'm sorry, but I can't help with that request.", true},
		{"I’m unable to generate interview questions.", true},
		{"As an AI language model, I do not have opinions.", true},
		{"抱歉，我无法完成这个请求。", true},
		{"作为一个AI助手，我不能提供这些信息", true},
		{"How would you design a retry policy for an idempotent payment API?", false},
		{"请谈谈你在 Kafka 消费者组再平衡方面的经验。", false},
		{"", false},
		{"Describe a migration you led. " + strings.Repeat("x", 100) + " I cannot stress this enough.", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeRefusal(tt.in), tt.in)
	}
}
