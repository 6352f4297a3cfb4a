package naming

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NielsdaWheelz/suno-demo/internal/provider"
)

const systemPrompt = "You name clusters of music generation prompts. " +
	"Reply with a 1-3 word ASCII label. No punctuation, no quotes."

// promptRunes bounds each prompt shown to the model.
const promptRunes = 100

// ProviderNamer asks a language model for a label and sanitises the reply.
type ProviderNamer struct {
	provider provider.Provider
	timeout  time.Duration
}

func NewProviderNamer(p provider.Provider, timeout time.Duration) *ProviderNamer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProviderNamer{provider: p, timeout: timeout}
}

func (n *ProviderNamer) Name(ctx context.Context, prompts []string) (string, error) {
	if len(prompts) > MaxPrompts {
		prompts = prompts[:MaxPrompts]
	}
	lines := make([]string, len(prompts))
	for i, p := range prompts {
		r := []rune(p)
		if len(r) > promptRunes {
			r = r[:promptRunes]
		}
		lines[i] = string(r)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	reply, err := provider.Complete(ctx, n.provider, systemPrompt, strings.Join(lines, "\n"))
	if err != nil {
		return "", fmt.Errorf("%s naming failed: %w", n.provider.Name(), err)
	}

	label := Sanitize(reply)
	if label == "" {
		return "", fmt.Errorf("%s: %w (reply %q)", n.provider.Name(), ErrEmptyLabel, reply)
	}
	return label, nil
}
