package domain

import (
	"context"
	"log/slog"
	"sync"
)

// recordingHandler keeps every log record for assertions
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func (h *recordingHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.records))
	for i, r := range h.records {
		out[i] = r.Message
	}
	return out
}

func newRecorder() (*recordingHandler, *slog.Logger) {
	h := &recordingHandler{}
	return h, slog.New(h)
}

// changeCounter counts notifications per property
type changeCounter map[string]int

func (c changeCounter) record(ch PropertyChange) { c[ch.Property]++ }

func (c changeCounter) total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
