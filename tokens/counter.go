// Package tokens counts language-model tokens in text.
//
// Counting uses the cl100k_base byte-pair encoding. When the encoding cannot
// be loaded the counter degrades to an estimate of one token per four
// characters rather than failing.
package tokens

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is the encoding used by current OpenAI chat and embedding models.
const DefaultEncoding = "cl100k_base"

// Counter reports the token count of a text.
type Counter interface {
	Count(text string) int
}

// Tiktoken counts tokens with a byte-pair encoding. The encoding is loaded
// on first use and shared across goroutines.
type Tiktoken struct {
	encoding string
	logger   *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
	warn sync.Once
}

var _ Counter = (*Tiktoken)(nil)

// NewTiktoken creates a counter for the named encoding.
func NewTiktoken(encoding string, logger *slog.Logger) *Tiktoken {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tiktoken{
		encoding: encoding,
		logger:   logger.With("component", "tokens"),
	}
}

// Count returns the number of tokens in text. It never fails.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	t.once.Do(func() {
		t.enc, t.err = tiktoken.GetEncoding(t.encoding)
	})
	if t.err != nil {
		t.warn.Do(func() {
			t.logger.Warn("token encoding unavailable, estimating from length", "encoding", t.encoding, "err", t.err)
		})
		return Estimate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Estimate approximates a token count as one token per four characters.
func Estimate(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// UseOfflineBPE makes encodings load from data embedded in the binary
// instead of being downloaded on first use.
func UseOfflineBPE() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

var (
	defaultOnce    sync.Once
	defaultCounter *Tiktoken
)

// Default returns the shared cl100k_base counter.
func Default() *Tiktoken {
	defaultOnce.Do(func() {
		defaultCounter = NewTiktoken(DefaultEncoding, nil)
	})
	return defaultCounter
}

// Count counts tokens with the shared counter.
func Count(text string) int {
	return Default().Count(text)
}
