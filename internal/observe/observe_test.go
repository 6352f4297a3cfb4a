package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObserver_Log(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := New(buf, true)

	obs.Log().Info().
		Str("session_id", "sess-123").
		Int("clips", 3).
		Msg("batch committed")

	output := buf.String()
	if !strings.Contains(output, "batch committed") {
		t.Errorf("expected output to contain 'batch committed', got %q", output)
	}
	if !strings.Contains(output, "sess-123") {
		t.Errorf("expected output to contain the session id, got %q", output)
	}
}

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := NewJSON(buf, true)

	obs.Log().Info().Str("k", "v").Msg("json line")
	if !strings.Contains(buf.String(), `"k"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestObserver_QuietByDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := New(buf, false)

	obs.Log().Info().Msg("hidden")
	obs.Log().Warn().Msg("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info should be suppressed when not verbose, got %q", output)
	}
	if !strings.Contains(output, "shown") {
		t.Errorf("warn should be shown, got %q", output)
	}
}

func TestObserver_StartSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	obs := Nop()
	_, span := obs.StartSpan(context.Background(), "generate", "session_id", "abc")
	EndSpan(span, errors.New("backend down"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "generate" {
		t.Errorf("expected span 'generate', got %q", s.Name())
	}
	if len(s.Attributes()) != 1 || s.Attributes()[0].Value.AsString() != "abc" {
		t.Errorf("unexpected attributes %v", s.Attributes())
	}
	if s.Status().Description != "backend down" {
		t.Errorf("expected error status, got %+v", s.Status())
	}
}

func TestObserver_InitTracingDisabled(t *testing.T) {
	obs := Nop()
	if err := obs.InitTracing(context.Background(), TracingConfig{}); err != nil {
		t.Fatalf("InitTracing failed: %v", err)
	}
	if err := obs.Close(); err != nil {
		t.Errorf("expected nil error from Close, got %v", err)
	}
}
