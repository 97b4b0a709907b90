package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/labsense/internal/cache"
	"github.com/ppiankov/labsense/internal/model"
)

var audioName = regexp.MustCompile(`^summary_\d+_[0-9a-f]{8}\.mp3$`)

func ttsServer(t *testing.T, failAfter int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if failAfter > 0 && n > failAfter {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		q := r.URL.Query()
		if q.Get("client") != "tw-ob" || q.Get("tl") != "mr" || q.Get("q") == "" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-fake-mp3"))
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

func TestSpeaker_WritesChunkFiles(t *testing.T) {
	server, calls := ttsServer(t, 0)
	dir := t.TempDir()

	speaker := NewSpeaker(
		NewGoogleTTS(server.URL, server.Client()),
		NewNormalizer("", "", 40),
		SpeakerOptions{Language: "mr", AudioDir: dir, Logger: zerolog.Nop()},
	)

	out, err := speaker.Speak(context.Background(), "Hemoglobin is 9.2 g/dL. The range is 13.0–17.0 g/dL. Please see your doctor.")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if out.Provider != "google" {
		t.Errorf("provider = %s", out.Provider)
	}
	if len(out.Chunks) < 2 {
		t.Fatalf("expected several chunks, got %q", out.Chunks)
	}
	if int(calls.Load()) != len(out.Chunks) || len(out.AudioFiles) != len(out.Chunks) {
		t.Fatalf("calls=%d files=%d chunks=%d", calls.Load(), len(out.AudioFiles), len(out.Chunks))
	}

	for i, path := range out.AudioFiles {
		name := filepath.Base(path)
		if !audioName.MatchString(name) {
			t.Errorf("bad file name %q", name)
		}
		if want := "summary_" + string(rune('1'+i)) + "_"; name[:len(want)] != want {
			t.Errorf("file %d named %q", i, name)
		}
		data, err := os.ReadFile(path)
		if err != nil || string(data) != "ID3-fake-mp3" {
			t.Errorf("unexpected file content %q (%v)", data, err)
		}
	}

	if want := "Hemoglobin is 9 point 2 g/dL."; out.Text[:len(want)] != want {
		t.Errorf("speech text not normalized: %q", out.Text)
	}
}

func TestSpeaker_FailureRemovesPartialFiles(t *testing.T) {
	server, _ := ttsServer(t, 1)
	dir := t.TempDir()

	speaker := NewSpeaker(
		NewGoogleTTS(server.URL, server.Client()),
		NewNormalizer("", "", 30),
		SpeakerOptions{Language: "mr", AudioDir: dir, Logger: zerolog.Nop()},
	)

	out, err := speaker.Speak(context.Background(), "First sentence here. Second sentence here. Third one.")
	if !errors.Is(err, model.ErrSpeechUnavailable) {
		t.Fatalf("expected speech unavailable, got %v", err)
	}
	if len(out.AudioFiles) != 0 {
		t.Errorf("no audio should be reported, got %v", out.AudioFiles)
	}
	if len(out.Chunks) == 0 {
		t.Error("chunks should still be reported for text-only delivery")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("partial files left behind: %d", len(entries))
	}
}

func TestSpeaker_NoSynthesizer(t *testing.T) {
	speaker := NewSpeaker(nil, nil, SpeakerOptions{AudioDir: t.TempDir()})

	out, err := speaker.Speak(context.Background(), "Value is 16.0 today.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Provider != "none" || len(out.AudioFiles) != 0 {
		t.Errorf("unexpected output: %+v", out)
	}
	if out.Text != "Value is 16 today." {
		t.Errorf("text = %q", out.Text)
	}
}

func TestSpeaker_CacheAvoidsRepeatCalls(t *testing.T) {
	server, calls := ttsServer(t, 0)
	c := cache.NewMemoryCache(time.Minute, time.Minute)

	speaker := NewSpeaker(
		NewGoogleTTS(server.URL, server.Client()),
		nil,
		SpeakerOptions{Language: "mr", AudioDir: t.TempDir(), Cache: c, CacheTTL: time.Minute, Logger: zerolog.Nop()},
	)

	for i := 0; i < 2; i++ {
		if _, err := speaker.Speak(context.Background(), "Short text."); err != nil {
			t.Fatalf("Speak failed: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 synthesis call, got %d", calls.Load())
	}
}

func TestOpenAITTS_Synthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("openai-mp3"))
	}))
	defer server.Close()

	synth, err := NewOpenAITTS("test-key", server.URL+"/v1", "", "", server.Client())
	if err != nil {
		t.Fatalf("NewOpenAITTS failed: %v", err)
	}

	audio, err := synth.Synthesize(context.Background(), "नमस्कार", "mr")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio.Data) != "openai-mp3" || audio.Format != "mp3" {
		t.Errorf("unexpected audio: %+v", audio)
	}
}

func TestNewOpenAITTS_MissingKey(t *testing.T) {
	if _, err := NewOpenAITTS("", "", "", "", nil); err == nil {
		t.Error("expected error without API key")
	}
}

func TestNewSynthesizer(t *testing.T) {
	cfg := model.DefaultConfig()

	cfg.Speech.Provider = "none"
	if s, err := NewSynthesizer(*cfg); err != nil || s != nil {
		t.Errorf("none: got %v, %v", s, err)
	}

	cfg.Speech.Provider = "google"
	if s, err := NewSynthesizer(*cfg); err != nil || s.Name() != "google" {
		t.Errorf("google: got %v, %v", s, err)
	}

	cfg.Speech.Provider = "polly"
	if _, err := NewSynthesizer(*cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
