package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"github.com/NielsdaWheelz/suno-demo/internal/media"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
)

func newLibrary(t *testing.T) *media.Library {
	t.Helper()
	lib, err := media.New(filepath.Join(t.TempDir(), "media"))
	if err != nil {
		t.Fatalf("media.New failed: %v", err)
	}
	return lib
}

func stagedCount(t *testing.T, lib *media.Library) int {
	t.Helper()
	entries, err := os.ReadDir(lib.StagingDir())
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func pcmBytes(n int) []byte {
	b := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := int16(1000 * math.Sin(float64(i)/10))
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

func TestToneGenerator(t *testing.T) {
	lib := newLibrary(t)
	g := NewToneGenerator(lib)

	clips, err := g.Generate(context.Background(), "warm pads", 3, 1.5)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("Expected 3 clips, got %d", len(clips))
	}
	for _, c := range clips {
		if c.RawPrompt != "warm pads" {
			t.Errorf("RawPrompt = %q", c.RawPrompt)
		}
		dur, err := media.Duration(c.Path)
		if err != nil {
			t.Fatalf("Duration failed: %v", err)
		}
		if math.Abs(dur-1.5) > 0.01 {
			t.Errorf("Duration = %v, want 1.5", dur)
		}
	}

	a := g.render("warm pads", 0, 0.1)
	b := g.render("warm pads", 0, 0.1)
	if len(a) != 1600 {
		t.Errorf("Expected 1600 samples, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("render is not deterministic")
		}
	}
}

func TestToneGenerator_RejectsZeroDuration(t *testing.T) {
	g := NewToneGenerator(newLibrary(t))
	if _, err := g.Generate(context.Background(), "x", 1, 0); err == nil {
		t.Error("Expected error for zero duration")
	}
}

// brokenStager stages through lib until index failAt.
type brokenStager struct {
	lib    *media.Library
	failAt int
}

func (s brokenStager) StagePath(index int) (string, error) {
	if index == s.failAt {
		return "", errors.New("disk full")
	}
	return s.lib.StagePath(index)
}

func TestToneGenerator_FailureLeavesNothingStaged(t *testing.T) {
	lib := newLibrary(t)
	g := NewToneGenerator(brokenStager{lib: lib, failAt: 2})

	if _, err := g.Generate(context.Background(), "p", 3, 0.1); err == nil {
		t.Fatal("Expected staging error")
	}
	if n := stagedCount(t, lib); n != 0 {
		t.Errorf("Expected nothing staged, found %d files", n)
	}
}

func TestParsePCMRate(t *testing.T) {
	tests := []struct {
		format  string
		want    int
		wantErr bool
	}{
		{"pcm_44100", 44100, false},
		{"pcm_16000", 16000, false},
		{"mp3_44100_128", 0, true},
		{"pcm_", 0, true},
		{"pcm_-1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := parsePCMRate(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePCMRate(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parsePCMRate(%q) = %d, want %d", tt.format, got, tt.want)
			}
		})
	}
}

func TestElevenLabsGenerator_Multipart(t *testing.T) {
	pcm := pcmBytes(16000)
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v1/music/detailed" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("output_format") != "pcm_16000" {
			t.Errorf("Unexpected output_format %s", r.URL.Query().Get("output_format"))
		}
		if r.Header.Get("xi-api-key") != "xi-test" {
			t.Errorf("Missing api key header")
		}
		var req elevenLabsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}
		if req.MusicLengthMs != 2000 || req.ModelID != "music_v1" || !req.ForceInstrumental || req.Prompt != "lofi" {
			t.Errorf("Unexpected payload %+v", req)
		}

		mw := multipart.NewWriter(w)
		w.Header().Set("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
		meta, _ := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json"}})
		meta.Write([]byte(`{"song_id":"abc"}`))
		part, _ := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"audio/pcm"},
			"Content-Transfer-Encoding": {"base64"},
		})
		part.Write([]byte(base64.StdEncoding.EncodeToString(pcm)))
		mw.Close()
	}))
	defer server.Close()

	lib := newLibrary(t)
	g, err := NewElevenLabsGenerator(ElevenLabsConfig{
		APIKey:       "xi-test",
		BaseURL:      server.URL,
		OutputFormat: "pcm_16000",
	}, lib, observe.Nop())
	if err != nil {
		t.Fatalf("NewElevenLabsGenerator failed: %v", err)
	}

	clips, err := g.Generate(context.Background(), "lofi", 2, 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(clips) != 2 || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("Expected 2 clips from 2 calls, got %d clips, %d calls", len(clips), calls)
	}
	// 16000 frames at 16kHz.
	if clips[0].DurationSec != 1 {
		t.Errorf("DurationSec = %v, want 1", clips[0].DurationSec)
	}
	buf, err := media.ReadPCM(clips[0].Path)
	if err != nil {
		t.Fatalf("ReadPCM failed: %v", err)
	}
	if len(buf.Data) != 16000 || buf.Data[10] != int(int16(binary.LittleEndian.Uint16(pcm[20:]))) {
		t.Errorf("Decoded samples do not match the response")
	}
}

func TestElevenLabsGenerator_SkipsFailedClips(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pcmBytes(4410))
	}))
	defer server.Close()

	g, err := NewElevenLabsGenerator(ElevenLabsConfig{APIKey: "k", BaseURL: server.URL}, newLibrary(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	clips, err := g.Generate(context.Background(), "p", 3, 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(clips) != 2 {
		t.Errorf("Expected 2 surviving clips, got %d", len(clips))
	}
	if math.Abs(clips[0].DurationSec-0.1) > 1e-9 {
		t.Errorf("DurationSec = %v, want 0.1", clips[0].DurationSec)
	}
}

func TestElevenLabsGenerator_AllFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"detail":"nope"}`))
	}))
	defer server.Close()

	lib := newLibrary(t)
	g, _ := NewElevenLabsGenerator(ElevenLabsConfig{APIKey: "k", BaseURL: server.URL}, lib, nil)
	_, err := g.Generate(context.Background(), "p", 2, 1)
	if !errors.Is(err, ErrNoClips) {
		t.Fatalf("Expected ErrNoClips, got %v", err)
	}
	if n := stagedCount(t, lib); n != 0 {
		t.Errorf("Expected nothing staged, found %d files", n)
	}
}

func TestElevenLabsGenerator_OversizedAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pcmBytes(1 << 20))
	}))
	defer server.Close()

	lib := newLibrary(t)
	g, _ := NewElevenLabsGenerator(ElevenLabsConfig{APIKey: "k", BaseURL: server.URL}, lib, nil)
	_, err := g.Generate(context.Background(), "p", 1, 0.01)
	if !errors.Is(err, ErrNoClips) {
		t.Fatalf("Expected ErrNoClips, got %v", err)
	}
	if n := stagedCount(t, lib); n != 0 {
		t.Errorf("Expected nothing staged, found %d files", n)
	}
}

func TestExtractAudio_Limit(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"audio/pcm"}})
	if err != nil {
		t.Fatal(err)
	}
	part.Write(pcmBytes(100))
	mw.Close()
	contentType := "multipart/mixed; boundary=" + mw.Boundary()

	if _, err := extractAudio(contentType, bytes.NewReader(body.Bytes()), 100); err == nil {
		t.Error("Expected an error for a part over the limit")
	}
	data, err := extractAudio(contentType, bytes.NewReader(body.Bytes()), 200)
	if err != nil {
		t.Fatalf("extractAudio failed: %v", err)
	}
	if len(data) != 200 {
		t.Errorf("Expected 200 bytes, got %d", len(data))
	}
}

func TestNewElevenLabsGenerator_Validation(t *testing.T) {
	lib := newLibrary(t)
	if _, err := NewElevenLabsGenerator(ElevenLabsConfig{}, lib, nil); err == nil {
		t.Error("Expected error without API key")
	}
	if _, err := NewElevenLabsGenerator(ElevenLabsConfig{APIKey: "k", OutputFormat: "mp3_44100"}, lib, nil); err == nil {
		t.Error("Expected error for non-PCM format")
	}
}

func TestMusicGenGenerator(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.wav")
	if err := media.WritePCM16(src, make([]int, 8000), 8000, 1); err != nil {
		t.Fatal(err)
	}
	wavBody, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/facebook/musicgen-small" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer hf-test" {
			t.Errorf("Unexpected auth header %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		var req musicGenRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}
		if req.Inputs != "drums" || req.Parameters.Duration != 4 {
			t.Errorf("Unexpected payload %s", body)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wavBody)
	}))
	defer server.Close()

	g, err := NewMusicGenGenerator(MusicGenConfig{APIURL: server.URL + "/", Token: "hf-test"}, newLibrary(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	clips, err := g.Generate(context.Background(), "drums", 2, 4)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("Expected 2 clips, got %d", len(clips))
	}
	if math.Abs(clips[1].DurationSec-1) > 1e-9 {
		t.Errorf("DurationSec = %v, want 1", clips[1].DurationSec)
	}
}

func TestMusicGenGenerator_InvalidAudioIsDiscarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not a wav file"))
	}))
	defer server.Close()

	lib := newLibrary(t)
	g, _ := NewMusicGenGenerator(MusicGenConfig{APIURL: server.URL, Token: "t"}, lib, nil)
	_, err := g.Generate(context.Background(), "p", 2, 4)
	if !errors.Is(err, ErrNoClips) {
		t.Fatalf("Expected ErrNoClips, got %v", err)
	}
	if n := stagedCount(t, lib); n != 0 {
		t.Errorf("Invalid clips should be removed, found %d files", n)
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, _ := NewMusicGenGenerator(MusicGenConfig{APIURL: "http://127.0.0.1:1", Token: "t"}, newLibrary(t), nil)
	_, err := g.Generate(ctx, "p", 3, 1)
	if !errors.Is(err, ErrNoClips) {
		t.Errorf("Expected ErrNoClips, got %v", err)
	}
}
