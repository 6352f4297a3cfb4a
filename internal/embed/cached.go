package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedEmbedder memoises another embedder. Audio is keyed by the sha256 of
// the file content, so the same clip staged under a new name is a hit.
type CachedEmbedder struct {
	inner Embedder
	cache *cache.Cache
}

func NewCachedEmbedder(inner Embedder, ttl, cleanup time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &CachedEmbedder{inner: inner, cache: cache.New(ttl, cleanup)}
}

func (c *CachedEmbedder) EmbedAudio(ctx context.Context, path string) ([]float32, error) {
	digest, err := fileDigest(path)
	if err != nil {
		return nil, err
	}
	return c.lookup(ctx, "audio:"+digest, func() ([]float32, error) {
		return c.inner.EmbedAudio(ctx, path)
	})
}

func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return c.lookup(ctx, "text:"+text, func() ([]float32, error) {
		return c.inner.EmbedText(ctx, text)
	})
}

// Len reports how many vectors are cached.
func (c *CachedEmbedder) Len() int {
	return c.cache.ItemCount()
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string, compute func() ([]float32, error)) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok := c.cache.Get(key); ok {
		return clone(v.([]float32)), nil
	}
	vec, err := compute()
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, clone(vec), cache.DefaultExpiration)
	return vec, nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to open clip: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash clip: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
