package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIProvider(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": "ocean drift", "role": "assistant"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`))
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("test-key", server.URL, "")
	if p.Name() != "openai" {
		t.Errorf("Expected 'openai', got '%s'", p.Name())
	}

	got, err := Complete(context.Background(), p, "name things", "prompt one")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "ocean drift" {
		t.Errorf("Expected 'ocean drift', got '%s'", got)
	}
	if !strings.Contains(gotBody, `"role":"system"`) || !strings.Contains(gotBody, DefaultOpenAIModel) {
		t.Errorf("Request body missing system message or model: %s", gotBody)
	}
}

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object": "list", "data": [{"object": "embedding", "index": 0, "embedding": [0.5, 0.25]}]}`))
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("test-key", server.URL, "")
	vec, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("Unexpected embedding %v", vec)
	}
}

func TestOllamaProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": {"role": "assistant", "content": "stone echo"}, "done": true, "eval_count": 3, "prompt_eval_count": 5}`))
	}))
	defer server.Close()

	t.Setenv("OLLAMA_HOST", server.URL)

	p, err := NewOllamaProvider("llama3", "")
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Expected 'ollama', got '%s'", p.Name())
	}

	resp, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "stone echo" {
		t.Errorf("Expected 'stone echo', got '%s'", resp.Content)
	}
	if resp.Usage.TotalTokens != 8 {
		t.Errorf("Expected 8 total tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestAnthropicProvider(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.Header.Get("x-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_123",
			"content": [{"type": "text", "text": "forest light"}],
			"usage": {"input_tokens": 5, "output_tokens": 2}
		}`))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider("test-key", "")
	p.SetBaseURL(server.URL)
	if p.Name() != "anthropic" {
		t.Errorf("Expected 'anthropic', got '%s'", p.Name())
	}

	got, err := Complete(context.Background(), p, "label it", "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "forest light" {
		t.Errorf("Expected 'forest light', got '%s'", got)
	}
	if !strings.Contains(gotBody, `"system":"label it"`) {
		t.Errorf("System prompt should be sent out of band: %s", gotBody)
	}
	if strings.Contains(gotBody, `"role":"system"`) {
		t.Errorf("System role must not appear in messages: %s", gotBody)
	}

	if _, err := p.Embed(context.Background(), "x"); !errors.Is(err, ErrEmbeddingUnsupported) {
		t.Errorf("Expected ErrEmbeddingUnsupported, got %v", err)
	}
}

func TestGeminiProvider_Name(t *testing.T) {
	// genai.NewClient does not dial until first use.
	p, err := NewGeminiProvider("fake-key", "")
	if err != nil {
		t.Logf("Skipping Gemini Name test due to client init error: %v", err)
		return
	}
	defer p.Close()
	if p.Name() != "gemini" {
		t.Errorf("Expected 'gemini', got '%s'", p.Name())
	}
	if _, err := p.Chat(context.Background(), []Message{{Role: RoleSystem, Content: "only system"}}); err == nil {
		t.Error("Expected error when no user message is present")
	}
}

func TestCLIProvider(t *testing.T) {
	p, err := NewCLIProvider("echo", []string{"-n"})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "amber glow"}})
	if err != nil {
		t.Skipf("echo not available: %v", err)
	}
	if resp.Content != "amber glow" {
		t.Errorf("Expected 'amber glow', got %q", resp.Content)
	}

	if _, err := NewCLIProvider("", nil); err == nil {
		t.Error("Expected error for empty binary path")
	}
}

func TestStubProvider(t *testing.T) {
	p := NewStubProvider("first", "second")
	if p.Name() != "stub" {
		t.Errorf("Expected 'stub', got '%s'", p.Name())
	}
	for _, want := range []string{"first", "second", "untitled"} {
		got, err := Complete(context.Background(), p, "", "hi")
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
	if len(p.Calls) != 3 {
		t.Errorf("Expected 3 recorded calls, got %d", len(p.Calls))
	}

	a, _ := p.Embed(context.Background(), "same")
	b, _ := p.Embed(context.Background(), "same")
	if len(a) != 8 || a[0] != b[0] {
		t.Errorf("Stub embeddings should be deterministic: %v vs %v", a, b)
	}
}

func TestStubProvider_Canceled(t *testing.T) {
	p := NewStubProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Chat(ctx, []Message{{Content: "hi"}}); err == nil {
		t.Error("Expected error on canceled context")
	}
}

func TestOpenAIProvider_Init(t *testing.T) {
	if _, err := NewOpenAIProvider("", "", ""); err == nil {
		t.Error("Expected error for empty key")
	}
}

func TestProvider_Errors(t *testing.T) {
	t.Run("OpenAI Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(500)
		}))
		defer server.Close()
		p, _ := NewOpenAIProvider("key", server.URL, "")
		if _, err := p.Chat(context.Background(), []Message{{Content: "hi"}}); err == nil {
			t.Error("Expected error")
		}
	})

	t.Run("Anthropic Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(401)
		}))
		defer server.Close()
		p, _ := NewAnthropicProvider("key", "")
		p.SetBaseURL(server.URL)
		if _, err := p.Chat(context.Background(), []Message{{Content: "hi"}}); err == nil {
			t.Error("Expected error")
		}
	})
}
