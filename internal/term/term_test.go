package term

import (
	"context"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/discode/internal/telemetry"
)

func TestWindowIDRoundTrip(t *testing.T) {
	tests := []struct {
		project, window string
	}{
		{"myproj", "claude"},
		{"a", "b"},
		{"proj-1", "codex#2"},
	}
	for _, tt := range tests {
		id := ToWindowID(tt.project, tt.window)
		project, window, err := ParseWindowID(id)
		if err != nil {
			t.Fatalf("parse %q: %v", id, err)
		}
		if project != tt.project || window != tt.window {
			t.Errorf("round trip %q = (%q, %q)", id, project, window)
		}
	}
}

func TestParseWindowIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "nocolon", ":leading", "trailing:"} {
		if _, _, err := ParseWindowID(id); err == nil {
			t.Errorf("ParseWindowID(%q) should fail", id)
		}
	}
}

func TestFeedUpdatesScreenAndAnswersQueries(t *testing.T) {
	w := NewWindow("p:w", 80, 24)
	reply := w.Feed(context.Background(), telemetry.Noop(), []byte("hello\x1b[6n"))
	if got := string(reply); got != "\x1b[1;6R" {
		t.Errorf("reply = %q", got)
	}
	if text := w.Text(); !strings.Contains(text, "hello") {
		t.Errorf("text snapshot = %q", text)
	}
}

func TestFeedCapsRawBuffer(t *testing.T) {
	w := NewWindow("p:w", 80, 24)
	chunk := make([]byte, 64*1024)
	for i := range chunk {
		chunk[i] = 'x'
	}
	for i := 0; i < 10; i++ {
		w.Feed(context.Background(), nil, chunk)
	}
	if got := len(w.Raw()); got > rawBufferCap {
		t.Errorf("raw buffer %d exceeds cap", got)
	}
}

func TestManagerEnsureIsIdempotent(t *testing.T) {
	m := NewManager()
	a := m.Ensure("p:claude")
	b := m.Ensure("p:claude")
	if a != b {
		t.Error("ensure should return the same window")
	}
	if ids := m.IDs(); len(ids) != 1 || ids[0] != "p:claude" {
		t.Errorf("ids = %v", ids)
	}
	m.Remove("p:claude")
	if m.Get("p:claude") != nil {
		t.Error("window should be gone")
	}
}

func TestStatusLifecycle(t *testing.T) {
	w := NewWindow("p:w", 80, 24)
	if w.Status() != StatusIdle {
		t.Errorf("initial status = %s", w.Status())
	}
	for _, s := range []Status{StatusStarting, StatusRunning, StatusExited} {
		w.SetStatus(s)
		if w.Status() != s {
			t.Errorf("status = %s, want %s", w.Status(), s)
		}
	}
}

func TestEnvRegistryMerge(t *testing.T) {
	r := NewEnvRegistry()
	r.Set("p", "AGENT_DISCORD_PROJECT", "p")
	r.Set("p", "EXTRA", "override")

	base := map[string]string{"EXTRA": "base", "PATH": "/bin"}
	merged := r.Merge("p", base)
	if merged["EXTRA"] != "override" || merged["PATH"] != "/bin" || merged["AGENT_DISCORD_PROJECT"] != "p" {
		t.Errorf("merged = %v", merged)
	}
	if base["EXTRA"] != "base" {
		t.Error("base mutated")
	}

	r.Clear("p")
	if got := r.Merge("p", nil); len(got) != 0 {
		t.Errorf("cleared overlay = %v", got)
	}
}
