package provider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

// StubProvider replays canned responses and produces hash embeddings. It is
// used offline and in tests.
type StubProvider struct {
	mu        sync.Mutex
	Responses []Response
	Err       error
	Calls     [][]Message
}

func NewStubProvider(replies ...string) *StubProvider {
	p := &StubProvider{}
	for _, r := range replies {
		p.Responses = append(p.Responses, Response{Content: r})
	}
	return p
}

func (m *StubProvider) Chat(ctx context.Context, messages []Message) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return &Response{Content: "untitled"}, nil
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return &resp, nil
}

func (m *StubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32(float64(binary.BigEndian.Uint32(sum[i*4:])) / math.MaxUint32)
	}
	return vec, nil
}

func (m *StubProvider) Name() string {
	return "stub"
}
