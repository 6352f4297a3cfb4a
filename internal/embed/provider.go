package embed

import (
	"context"
	"fmt"

	"github.com/NielsdaWheelz/suno-demo/internal/provider"
)

// ProviderEmbedder embeds text through a language model's embeddings endpoint.
type ProviderEmbedder struct {
	provider provider.Provider
}

func NewProviderEmbedder(p provider.Provider) *ProviderEmbedder {
	return &ProviderEmbedder{provider: p}
}

func (e *ProviderEmbedder) EmbedAudio(context.Context, string) ([]float32, error) {
	return nil, ErrAudioUnsupported
}

func (e *ProviderEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s embed: %w", e.provider.Name(), err)
	}
	return vec, nil
}
