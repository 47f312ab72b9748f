package vt

import (
	"strings"
	"testing"
)

func feed(t *testing.T, s *Screen, input string) {
	t.Helper()
	if _, err := s.Write([]byte(input)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func snapshotText(s *Screen) string {
	snap := s.Snapshot(s.cols, s.rows)
	lines := make([]string, len(snap.Lines))
	for i, l := range snap.Lines {
		lines[i] = l.Text()
	}
	return strings.Join(lines, "\n")
}

func TestWriteCursorRewrites(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "hello\rbye")
	snap := s.Snapshot(20, 6)
	if got := snap.Lines[0].Text(); !strings.HasPrefix(got, "byelo") {
		t.Errorf("line 0 = %q, want prefix %q", got, "byelo")
	}
}

func TestClearScreenAndHome(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "old\x1b[2J\x1b[Hnew")
	snap := s.Snapshot(20, 6)
	if got := snap.Lines[0].Text(); !strings.HasPrefix(got, "new") {
		t.Errorf("line 0 = %q, want prefix %q", got, "new")
	}
	if strings.Contains(snapshotText(s), "old") {
		t.Error("cleared content still visible")
	}
}

func TestAltScreenRestoresPrimary(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "primary\x1b[?1049halt\x1b[?1049l")
	text := snapshotText(s)
	if !strings.Contains(text, "primary") {
		t.Errorf("primary content lost: %q", text)
	}
	if strings.Contains(text, "alt") {
		t.Errorf("alt content leaked into primary: %q", text)
	}
}

func TestAltScreenEnterClears(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "primary\x1b[?1049h")
	if text := snapshotText(s); strings.Contains(text, "primary") {
		t.Errorf("alt screen not cleared: %q", text)
	}
}

func TestSGRColorSegments(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "\x1b[31mred\x1b[0m normal")
	snap := s.Snapshot(20, 6)
	var redSeg *Segment
	for i, seg := range snap.Lines[0].Segments {
		if strings.Contains(seg.Text, "red") {
			redSeg = &snap.Lines[0].Segments[i]
			break
		}
	}
	if redSeg == nil {
		t.Fatalf("no segment containing %q in %+v", "red", snap.Lines[0].Segments)
	}
	if redSeg.FG != "#cd3131" {
		t.Errorf("fg = %q, want #cd3131", redSeg.FG)
	}
}

func TestSGRResetClearsEverything(t *testing.T) {
	s := NewScreen(40, 6)
	feed(t, s, "\x1b[1;3;4;7;31;42m")
	if s.style.isDefault() {
		t.Fatal("style should be non-default before reset")
	}
	feed(t, s, "\x1b[0m")
	if !s.style.isDefault() {
		t.Errorf("SGR 0 did not reset style: %+v", s.style)
	}
}

func TestSGRExtendedColors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		fg    string
	}{
		{"256 palette", "\x1b[38;5;196mX", "#ff0000"},
		{"256 grayscale", "\x1b[38;5;232mX", "#080808"},
		{"truecolor", "\x1b[38;2;10;20;30mX", "#0a141e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(20, 6)
			feed(t, s, tt.input)
			snap := s.Snapshot(20, 6)
			if got := snap.Lines[0].Segments[0].FG; got != tt.fg {
				t.Errorf("fg = %q, want %q", got, tt.fg)
			}
		})
	}
}

func TestInverseResolvedAtSnapshot(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "\x1b[31;42;7mX")
	seg := s.Snapshot(20, 6).Lines[0].Segments[0]
	if seg.FG != "#0dbc79" || seg.BG != "#cd3131" {
		t.Errorf("inverse not swapped: fg=%q bg=%q", seg.FG, seg.BG)
	}
}

func TestSnapshotBounds(t *testing.T) {
	s := NewScreen(30, 8)
	for i := 0; i < 50; i++ {
		feed(t, s, "a line of text that is much longer than thirty columns wide\n")
	}
	snap := s.Snapshot(30, 8)
	if len(snap.Lines) > 8 {
		t.Errorf("snapshot has %d lines, want <= 8", len(snap.Lines))
	}
	for i, line := range snap.Lines {
		width := 0
		for _, seg := range line.Segments {
			for _, r := range seg.Text {
				width += runeDisplayWidth(r)
			}
		}
		if width > 30 {
			t.Errorf("line %d width %d exceeds 30", i, width)
		}
	}
}

func TestWideGlyphWrapsAtLastColumn(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, strings.Repeat("a", 19))
	feed(t, s, "한")
	snap := s.Snapshot(20, 6)
	if got := snap.Lines[0].Text(); strings.Contains(got, "한") {
		t.Errorf("wide glyph written at last column: %q", got)
	}
	if got := snap.Lines[1].Text(); !strings.HasPrefix(got, "한") {
		t.Errorf("line 1 = %q, want wide glyph at column 0", got)
	}
}

func TestZeroWidthAttachesToPreviousCell(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "éx")
	row, col := s.Cursor()
	if row != 0 || col != 2 {
		t.Errorf("cursor = (%d,%d), want (0,2)", row, col)
	}
	if got := s.Snapshot(20, 6).Lines[0].Text(); !strings.HasPrefix(got, "éx") {
		t.Errorf("line 0 = %q", got)
	}
}

func TestTabAdvancesToNextStop(t *testing.T) {
	s := NewScreen(40, 6)
	feed(t, s, "ab\tc")
	_, col := s.Cursor()
	if col != 9 {
		t.Errorf("cursor col = %d, want 9", col)
	}
}

func TestScrollbackRetainsRetiredLines(t *testing.T) {
	s := NewScreen(20, 6)
	for i := 0; i < 10; i++ {
		feed(t, s, "line\n")
	}
	if len(s.scrollback) == 0 {
		t.Error("no lines retired to scrollback")
	}
	// Tail view still shows the most recent rows only.
	snap := s.Snapshot(20, 6)
	if len(snap.Lines) > 6 {
		t.Errorf("snapshot lines = %d, want <= 6", len(snap.Lines))
	}
}

func TestScrollRegionDoesNotRetire(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "\x1b[2;5r")
	before := len(s.scrollback)
	for i := 0; i < 10; i++ {
		feed(t, s, "x\n")
	}
	if len(s.scrollback) != before {
		t.Errorf("region scroll retired %d lines to scrollback", len(s.scrollback)-before)
	}
}

func TestEraseLineModes(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"cursor to end", "abcdef\x1b[4G\x1b[0K", "abc"},
		{"begin to cursor", "abcdef\x1b[3G\x1b[1K", "   def"},
		{"entire line", "abcdef\x1b[2K", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(20, 6)
			feed(t, s, tt.seq)
			if got := s.Snapshot(20, 6).Lines[0].Text(); got != tt.want {
				t.Errorf("line = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSaveRestoreCursor(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "abc\x1b7xyz\x1b8!")
	if got := s.Snapshot(20, 6).Lines[0].Text(); !strings.HasPrefix(got, "abc!yz") {
		t.Errorf("line = %q, want prefix abc!yz", got)
	}
}

func TestMalformedSequencesNeverCorrupt(t *testing.T) {
	s := NewScreen(20, 6)
	inputs := []string{
		"\x1b[",        // truncated CSI
		"\x1b[12;",     // truncated params
		"\x1b]0;title", // unterminated OSC
		"\x1b[\x01",    // garbage inside CSI
		"ok",           // then normal text
	}
	for _, in := range inputs {
		feed(t, s, in)
	}
	if !strings.Contains(snapshotText(s), "ok") {
		t.Error("parser did not resynchronize after malformed input")
	}
}

func TestUnterminatedOSCDoesNotSwallowNextSequence(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "\x1b]0;title")
	feed(t, s, "\x1b[31mok")

	if got := snapshotText(s); !strings.Contains(got, "ok") {
		t.Fatalf("text = %q, want ok visible", got)
	}
	snap := s.Snapshot(20, 6)
	seg := snap.Lines[0].Segments[0]
	if seg.Text != "ok" || seg.FG != Ansi16Color(1) {
		t.Errorf("segment = %+v, want red ok (the CSI after the dangling OSC must apply)", seg)
	}
}

func TestUnterminatedAPCDoesNotSwallowNextSequence(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "\x1b_Ga=T,f=100")
	feed(t, s, "\x1b[1mhi")

	if got := snapshotText(s); !strings.Contains(got, "hi") {
		t.Fatalf("text = %q, want hi visible", got)
	}
	snap := s.Snapshot(20, 6)
	seg := snap.Lines[0].Segments[0]
	if seg.Text != "hi" || !seg.Bold {
		t.Errorf("segment = %+v, want bold hi", seg)
	}
}

func TestReplayDeterminism(t *testing.T) {
	stream := "a\x1b[31mb\x1b[2Jc\x1b[1;1Hd한́e\n\tf\x1b[?25l"
	one := NewScreen(20, 6)
	feed(t, one, stream)

	two := NewScreen(20, 6)
	for _, b := range []byte(stream) {
		feed(t, two, string([]byte{b}))
	}

	if snapshotText(one) != snapshotText(two) {
		t.Errorf("byte-at-a-time replay diverged:\n%q\nvs\n%q", snapshotText(one), snapshotText(two))
	}
}

func TestResizePreservesContent(t *testing.T) {
	s := NewScreen(40, 10)
	feed(t, s, "keep me")
	s.Resize(30, 8)
	if !strings.Contains(snapshotText(s), "keep me") {
		t.Error("resize dropped content")
	}
	if cols, rows := s.Size(); cols != 30 || rows != 8 {
		t.Errorf("size = %dx%d, want 30x8", cols, rows)
	}
}

func TestPrivateModeTracking(t *testing.T) {
	s := NewScreen(20, 6)
	if !s.PrivateMode(25) || !s.PrivateMode(7) {
		t.Error("modes 7 and 25 should default on")
	}
	if s.PrivateMode(2004) {
		t.Error("mode 2004 should default off")
	}
	feed(t, s, "\x1b[?2004h\x1b[?25l")
	if !s.PrivateMode(2004) {
		t.Error("mode 2004 not set")
	}
	if s.PrivateMode(25) || s.CursorVisible() {
		t.Error("mode 25 not cleared")
	}
}

func TestInsertDeleteChars(t *testing.T) {
	s := NewScreen(20, 6)
	feed(t, s, "abcdef\x1b[3G\x1b[2@")
	if got := s.Snapshot(20, 6).Lines[0].Text(); got != "ab  cdef" {
		t.Errorf("after ICH line = %q, want %q", got, "ab  cdef")
	}
	feed(t, s, "\x1b[2P")
	if got := s.Snapshot(20, 6).Lines[0].Text(); got != "abcdef" {
		t.Errorf("after DCH line = %q, want %q", got, "abcdef")
	}
}
