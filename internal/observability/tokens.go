package observability

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

const defaultEncoding = "cl100k_base"

// TokenCounter estimates the size of a prompt in tokens.
type TokenCounter interface {
	Count(text string) int
}

type TokenCounterFunc func(text string) int

func (f TokenCounterFunc) Count(text string) int { return f(text) }

// EstimateTokens approximates four bytes per token.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Tiktoken counts tokens with a BPE encoding. Neither Gemini nor Claude
// publish their tokenizers, so cl100k_base serves as an approximation. The
// encoding is loaded on first use; when it cannot be loaded every count falls
// back to EstimateTokens.
type Tiktoken struct {
	encoding string
	logger   *zap.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

func NewTiktoken(encoding string, logger *zap.Logger) *Tiktoken {
	if encoding == "" {
		encoding = defaultEncoding
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tiktoken{encoding: encoding, logger: logger}
}

func (t *Tiktoken) Count(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.logger.Warn("token encoding unavailable, estimating prompt size",
				zap.String("encoding", t.encoding),
				zap.Error(err),
			)
			return
		}
		t.enc = enc
	})

	if t.enc == nil {
		return EstimateTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}
