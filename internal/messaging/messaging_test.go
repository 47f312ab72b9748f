package messaging

import (
	"strings"
	"testing"
)

func TestSplitShortTextUntouched(t *testing.T) {
	chunks := Split("hello", 2000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestSplitPrefersNewline(t *testing.T) {
	text := strings.Repeat("x", 1500) + "\n" + strings.Repeat("y", 1000)
	chunks := Split(text, 2000)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n") {
		t.Error("first chunk should break at the newline")
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Error("split lost content")
	}
}

func TestSplitHardBreakWithoutNewline(t *testing.T) {
	text := strings.Repeat("a", 4500)
	chunks := Split(text, 2000)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 2000 {
			t.Errorf("chunk %d length %d", i, len(c))
		}
	}
	if strings.Join(chunks, "") != text {
		t.Error("split lost content")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"this one is too long", 10, "this on..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.maxLen)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
		if len(got) > tt.maxLen {
			t.Errorf("Truncate(%q, %d) length %d exceeds limit", tt.in, tt.maxLen, len(got))
		}
	}
}

func TestPlatformLimits(t *testing.T) {
	if PlatformDiscord.MaxMessageLen() != 2000 {
		t.Error("discord limit")
	}
	if PlatformSlack.MaxMessageLen() != 4000 {
		t.Error("slack limit")
	}
}
