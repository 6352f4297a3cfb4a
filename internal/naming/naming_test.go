package naming

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/NielsdaWheelz/suno-demo/internal/provider"
)

func TestHashNamer(t *testing.T) {
	n := HashNamer{}
	prompts := []string{"epic cinematic ambience | energy=0.70 | density=0.30 | duration=8.0s"}

	a, err := n.Name(context.Background(), prompts)
	if err != nil {
		t.Fatalf("Name failed: %v", err)
	}
	b, _ := n.Name(context.Background(), prompts)
	if a != b {
		t.Errorf("HashNamer should be deterministic: %q vs %q", a, b)
	}

	words := strings.Fields(a)
	if len(words) < 1 || len(words) > 3 {
		t.Errorf("Expected 1-3 words, got %q", a)
	}
	for _, w := range words {
		found := false
		for _, hw := range hashWords {
			if w == hw {
				found = true
			}
		}
		if !found {
			t.Errorf("Unexpected word %q", w)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"Ocean Drift"`, "Ocean Drift"},
		{"Café Noir!", "Cafe Noir"},
		{"  dark\n\tambient   swells  ", "dark ambient swells"},
		{"one two three four five", "one two three"},
		{"lo-fi/chill", "lo fi chill"},
		{"“Smart quotes”", "Smart quotes"},
		{"!!!", ""},
		{"日本語", ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.raw); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestProviderNamer(t *testing.T) {
	t.Run("Sanitises Reply", func(t *testing.T) {
		stub := provider.NewStubProvider(`"Neon Rain."`)
		n := NewProviderNamer(stub, time.Second)

		long := strings.Repeat("x", 150)
		label, err := n.Name(context.Background(), []string{long, "b", "c", "d"})
		if err != nil {
			t.Fatalf("Name failed: %v", err)
		}
		if label != "Neon Rain" {
			t.Errorf("Expected 'Neon Rain', got %q", label)
		}

		call := stub.Calls[0]
		if call[0].Role != provider.RoleSystem {
			t.Errorf("Expected system message first, got %s", call[0].Role)
		}
		lines := strings.Split(call[1].Content, "\n")
		if len(lines) != 3 {
			t.Errorf("Expected 3 prompt lines, got %d", len(lines))
		}
		if len(lines[0]) != 100 {
			t.Errorf("Expected first prompt truncated to 100, got %d", len(lines[0]))
		}
	})

	t.Run("Empty Reply", func(t *testing.T) {
		n := NewProviderNamer(provider.NewStubProvider("..."), time.Second)
		if _, err := n.Name(context.Background(), []string{"a"}); !errors.Is(err, ErrEmptyLabel) {
			t.Errorf("Expected ErrEmptyLabel, got %v", err)
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		stub := provider.NewStubProvider()
		stub.Err = errors.New("rate limited")
		n := NewProviderNamer(stub, time.Second)
		if _, err := n.Name(context.Background(), []string{"a"}); err == nil {
			t.Error("Expected error")
		}
	})
}
