package llm

import (
	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// TokenCounter gives an approximate prompt size for display. A nil
// *TokenCounter counts zero.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func NewTokenCounter(encoding string) (*TokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{encoding: tkm}, nil
}

func (t *TokenCounter) Count(text string) int {
	if t == nil || t.encoding == nil {
		return 0
	}
	return len(t.encoding.Encode(text, nil, nil))
}
