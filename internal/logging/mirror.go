package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Discord caps message content at 2000 characters.
const mirrorMaxLen = 1900

// mirrorWriter forwards error-level log events to a Discord webhook.
// It never blocks the logging path: events are queued and dropped when the
// queue is full or the rate limiter denies them.
type mirrorWriter struct {
	webhookURL string
	client     *http.Client
	limiter    *rate.Limiter

	queue  chan string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newMirrorWriter(webhookURL string) *mirrorWriter {
	ctx, cancel := context.WithCancel(context.Background())
	w := &mirrorWriter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 3),
		queue:      make(chan string, 64),
		cancel:     cancel,
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.worker(ctx)
	}()
	return w
}

func (w *mirrorWriter) Write(p []byte) (int, error) {
	// zerolog only calls Write for writers without level support; treat
	// those events as info and skip them.
	return w.WriteLevel(zerolog.InfoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter.
func (w *mirrorWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	if !w.limiter.Allow() {
		return len(p), nil
	}

	msg := formatMirrorLine(p)
	if msg == "" {
		return len(p), nil
	}

	select {
	case w.queue <- msg:
	default:
		// Queue full; losing a mirrored line is preferable to stalling
		// the pipeline.
	}
	return len(p), nil
}

func (w *mirrorWriter) Close() error {
	w.cancel()
	w.wg.Wait()
	return nil
}

func (w *mirrorWriter) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.queue:
			w.post(ctx, msg)
		}
	}
}

func (w *mirrorWriter) post(ctx context.Context, msg string) {
	payload, err := json.Marshal(map[string]string{"content": msg})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

// formatMirrorLine turns a zerolog JSON line into a short human-readable
// Discord message: "[ERROR] message" followed by one line per field.
func formatMirrorLine(p []byte) string {
	var event map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(p), &event); err != nil {
		return truncate(strings.TrimSpace(string(p)), mirrorMaxLen)
	}

	level, _ := event["level"].(string)
	msg, _ := event["message"].(string)

	var b strings.Builder
	if level != "" {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(level))
		b.WriteString("] ")
	}
	b.WriteString(msg)

	for key, value := range event {
		switch key {
		case "time", "level", "message":
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(truncate(fmt.Sprint(value), 600))
	}

	return truncate(b.String(), mirrorMaxLen)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 10 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
