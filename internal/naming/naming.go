// Package naming derives short human-readable labels for clusters of clips
// from the prompts that generated them.
package naming

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
)

// MaxPrompts is how many member prompts a namer is shown.
const MaxPrompts = 3

// ErrEmptyLabel is returned when a namer produced nothing usable.
var ErrEmptyLabel = errors.New("empty cluster label")

// Namer produces a 1-3 word label from up to MaxPrompts prompts.
type Namer interface {
	Name(ctx context.Context, prompts []string) (string, error)
}

var hashWords = []string{
	"cluster", "alpha", "beta", "gamma", "delta",
	"echo", "forest", "ocean", "stone", "light",
}

// HashNamer derives a label from a digest of the prompts. It never fails and
// always returns the same label for the same prompts.
type HashNamer struct{}

func (HashNamer) Name(_ context.Context, prompts []string) (string, error) {
	sum := sha256.Sum256([]byte(strings.Join(prompts, "|")))
	count := int(sum[0])%3 + 1
	words := make([]string, count)
	for i := range words {
		words[i] = hashWords[int(sum[i+1])%len(hashWords)]
	}
	return strings.Join(words, " "), nil
}
