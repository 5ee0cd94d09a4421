package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/teilomillet/promptstorm/providers"
)

// tokensPerMessage approximates the chat framing overhead per message.
const tokensPerMessage = 4

// TokenCounter estimates prompt sizes. The BPE table is loaded on first
// use; if it cannot be loaded the counter falls back to four characters
// per token.
type TokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
}

func NewTokenCounter() *TokenCounter {
	return &TokenCounter{encoding: "cl100k_base"}
}

func (tc *TokenCounter) load() {
	tc.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tc.encoding)
		if err == nil {
			tc.enc = enc
		}
	})
}

// Count estimates the tokens of a single text.
func (tc *TokenCounter) Count(text string) int {
	tc.load()
	if tc.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(tc.enc.Encode(text, nil, nil))
}

// CountMessages estimates the prompt tokens of a request's messages.
func (tc *TokenCounter) CountMessages(messages []providers.Message) int {
	total := 0
	for _, m := range messages {
		total += tokensPerMessage + tc.Count(m.Content)
	}
	return total
}
