package vt

import (
	"bytes"
	"strings"
	"testing"
)

func TestCursorPositionReport(t *testing.T) {
	s := NewScreen(80, 24)
	rec := NewQueryRecord(s)
	feed(t, s, "\x1b[5;10H")

	reply := rec.Respond([]byte("\x1b[6n"))
	if got := string(reply); got != "\x1b[5;10R" {
		t.Errorf("CPR = %q, want %q", got, "\x1b[5;10R")
	}

	reply = rec.Respond([]byte("\x1b[?6n"))
	if got := string(reply); got != "\x1b[?5;10R" {
		t.Errorf("DECXCPR = %q, want %q", got, "\x1b[?5;10R")
	}
}

func TestDeviceQueries(t *testing.T) {
	s := NewScreen(80, 24)
	rec := NewQueryRecord(s)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"status report", "\x1b[5n", "\x1b[0n"},
		{"primary DA", "\x1b[c", "\x1b[?62;c"},
		{"primary DA explicit", "\x1b[0c", "\x1b[?62;c"},
		{"kitty keyboard", "\x1b[?u", "\x1b[?0u"},
		{"window pixel size", "\x1b[14t", "\x1b[4;480;880t"},
		{"default fg", "\x1b]10;?\x1b\\", "\x1b]10;rgb:e5e5/e5e5/e5e5\x1b\\"},
		{"default bg", "\x1b]11;?\x1b\\", "\x1b]11;rgb:0a0a/0a0a/0a0a\x1b\\"},
		{"palette color 1", "\x1b]4;1;?\x1b\\", "\x1b]4;1;rgb:cdcd/3131/3131\x1b\\"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(rec.Respond([]byte(tt.input))); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDECRQMReflectsTrackedModes(t *testing.T) {
	s := NewScreen(80, 24)
	rec := NewQueryRecord(s)

	// Default-on modes report set even before any h/l.
	if got := string(rec.Respond([]byte("\x1b[?25$p"))); got != "\x1b[?25;1$y" {
		t.Errorf("mode 25 = %q, want set", got)
	}
	if got := string(rec.Respond([]byte("\x1b[?2004$p"))); got != "\x1b[?2004;2$y" {
		t.Errorf("mode 2004 = %q, want reset", got)
	}

	// h/l updates are tracked even though they produce no reply.
	if got := rec.Respond([]byte("\x1b[?2004h\x1b[?25l")); len(got) != 0 {
		t.Errorf("h/l produced reply %q", got)
	}
	if got := string(rec.Respond([]byte("\x1b[?2004$p"))); got != "\x1b[?2004;1$y" {
		t.Errorf("mode 2004 after set = %q, want set", got)
	}
	if got := string(rec.Respond([]byte("\x1b[?25$p"))); got != "\x1b[?25;2$y" {
		t.Errorf("mode 25 after reset = %q, want reset", got)
	}
}

func TestClaudeRedrawScenario(t *testing.T) {
	s := NewScreen(80, 24)
	rec := NewQueryRecord(s)

	input := "claude> draft\r\x1b[2Kclaude> final\x1b[3G\x1b[?25$p\x1b[6n"
	feed(t, s, input)
	reply := string(rec.Respond([]byte(input)))

	if !strings.Contains(reply, "\x1b[?25;1$y") {
		t.Errorf("reply %q missing cursor-visible DECRPM", reply)
	}
	if !strings.Contains(reply, "\x1b[1;3R") {
		t.Errorf("reply %q missing CPR at row 1 col 3", reply)
	}
	if got := s.Snapshot(80, 24).Lines[0].Text(); !strings.HasPrefix(got, "claude> final") {
		t.Errorf("line 0 = %q, want prefix %q", got, "claude> final")
	}
}

func TestChunkedKittyHandshake(t *testing.T) {
	s := NewScreen(80, 24)
	rec := NewQueryRecord(s)

	first := rec.Respond([]byte("\x1b_"))
	if len(first) != 0 {
		t.Errorf("partial APC produced reply %q", first)
	}
	second := rec.Respond([]byte("Ga=q\x1b\\"))
	if got := string(second); got != "\x1b_Gi=31337;OK\x1b\\" {
		t.Errorf("handshake reply = %q", got)
	}
	if len(rec.Carry) != 0 {
		t.Errorf("carry not drained: %q", rec.Carry)
	}
}

func TestChunkingInvariant(t *testing.T) {
	stream := []byte("text\x1b[6nmore\x1b[?25$p\x1b]4;196;?\x1b\\tail\x1b[5n")

	whole := NewQueryRecord(NewScreen(80, 24))
	want := string(whole.Respond(stream))

	for split := 1; split < len(stream); split++ {
		rec := NewQueryRecord(NewScreen(80, 24))
		var got bytes.Buffer
		got.Write(rec.Respond(stream[:split]))
		got.Write(rec.Respond(stream[split:]))
		if got.String() != want {
			t.Fatalf("split at %d: reply %q, want %q", split, got.String(), want)
		}
	}
}

func TestNoQueriesEmptyReply(t *testing.T) {
	rec := NewQueryRecord(NewScreen(80, 24))
	if got := rec.Respond([]byte("plain output, no escapes")); len(got) != 0 {
		t.Errorf("reply = %q, want empty", got)
	}
	if len(rec.Carry) != 0 {
		t.Errorf("carry = %q, want empty", rec.Carry)
	}
}

func TestIncompleteCSICarried(t *testing.T) {
	rec := NewQueryRecord(NewScreen(80, 24))
	if got := rec.Respond([]byte("\x1b[6")); len(got) != 0 {
		t.Errorf("premature reply %q", got)
	}
	if len(rec.Carry) == 0 {
		t.Fatal("incomplete CSI not carried")
	}
	if got := string(rec.Respond([]byte("n"))); got != "\x1b[1;1R" {
		t.Errorf("completed CPR = %q", got)
	}
}
