package logging

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func TestMirrorWriterForwardsErrors(t *testing.T) {
	var mu sync.Mutex
	var received []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("mirror sent invalid JSON: %v", err)
		}
		mu.Lock()
		received = append(received, payload["content"])
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	mirror := newMirrorWriter(server.URL)
	mirror.limiter = rate.NewLimiter(rate.Inf, 1)
	defer mirror.Close()

	line := []byte(`{"level":"error","time":"2025-06-01T12:00:00Z","message":"source fetch failed","source":"sreality"}` + "\n")
	if _, err := mirror.WriteLevel(zerolog.ErrorLevel, line); err != nil {
		t.Fatalf("WriteLevel() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("mirror never delivered the error event")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	content := received[0]
	mu.Unlock()
	if !strings.Contains(content, "[ERROR] source fetch failed") {
		t.Errorf("mirrored content %q missing level and message", content)
	}
	if !strings.Contains(content, "source=sreality") {
		t.Errorf("mirrored content %q missing event fields", content)
	}
}

func TestMirrorWriterIgnoresBelowError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("info-level event must not be mirrored")
	}))
	defer server.Close()

	mirror := newMirrorWriter(server.URL)
	defer mirror.Close()

	line := []byte(`{"level":"info","message":"fetching offers"}`)
	if _, err := mirror.WriteLevel(zerolog.InfoLevel, line); err != nil {
		t.Fatalf("WriteLevel() error = %v", err)
	}
	if _, err := mirror.WriteLevel(zerolog.WarnLevel, line); err != nil {
		t.Fatalf("WriteLevel() error = %v", err)
	}
	// Give the worker a moment to (incorrectly) deliver anything queued.
	time.Sleep(50 * time.Millisecond)
}

func TestNewWithoutMirror(t *testing.T) {
	logger, closer := New(Options{Debug: true, MirrorWebhookURL: "https://example.com/webhook"})
	defer closer.Close()

	// Debug mode suppresses mirroring entirely; logging must still work.
	logger.Debug().Msg("debug mode active")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}
}

func TestFormatMirrorLineTruncates(t *testing.T) {
	long := strings.Repeat("x", 5000)
	got := formatMirrorLine([]byte(`{"level":"error","message":"` + long + `"}`))
	if len(got) > mirrorMaxLen {
		t.Errorf("formatted line length %d exceeds %d", len(got), mirrorMaxLen)
	}
}
