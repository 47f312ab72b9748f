package vt

import "strings"

// Segment is a run of cells sharing one resolved style.
type Segment struct {
	Text      string `json:"text"`
	FG        string `json:"fg,omitempty"`
	BG        string `json:"bg,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

// StyledLine is one rendered row.
type StyledLine struct {
	Segments []Segment `json:"segments"`
}

// Snapshot is a styled view of the screen for chat refresh or the live view.
type Snapshot struct {
	Cols          int          `json:"cols"`
	Rows          int          `json:"rows"`
	Lines         []StyledLine `json:"lines"`
	CursorRow     int          `json:"cursorRow"`
	CursorCol     int          `json:"cursorCol"`
	CursorVisible bool         `json:"cursorVisible"`
}

// Snapshot renders the screen clamped to the requested dimensions. When the
// stream has used absolute positioning or display erases the view is the top
// of the grid (the application drew a full screen); otherwise it is the tail
// of scrollback plus grid, matching append-only log output.
func (s *Screen) Snapshot(cols, rows int) Snapshot {
	cols = clampInt(cols, MinCols, MaxCols)
	rows = clampInt(rows, MinRows, MaxRows)

	var view [][]Cell
	cursorRow := s.cursorRow
	if s.absCursorUsed {
		view = s.lines
		if len(view) > rows {
			view = view[:rows]
		}
	} else {
		used := s.usedGridRows()
		combined := make([][]Cell, 0, len(s.scrollback)+used)
		combined = append(combined, s.scrollback...)
		combined = append(combined, s.lines[:used]...)
		start := maxInt(len(combined)-rows, 0)
		view = combined[start:]
		cursorRow = len(s.scrollback) + s.cursorRow - start
	}

	lines := make([]StyledLine, len(view))
	for i, row := range view {
		lines[i] = renderLine(row, cols)
	}

	return Snapshot{
		Cols:          cols,
		Rows:          rows,
		Lines:         lines,
		CursorRow:     clampInt(cursorRow, 0, rows-1),
		CursorCol:     clampInt(s.cursorCol, 0, cols-1),
		CursorVisible: s.cursorVisible,
	}
}

// usedGridRows counts grid rows up to the cursor or the last non-blank row,
// whichever is lower.
func (s *Screen) usedGridRows() int {
	last := s.cursorRow
	for row := s.rows - 1; row > last; row-- {
		if !rowBlank(s.lines[row]) {
			last = row
			break
		}
	}
	return minInt(last+1, s.rows)
}

func rowBlank(row []Cell) bool {
	for _, c := range row {
		if c.Text != " " && c.Text != "" {
			return false
		}
	}
	return true
}

// renderLine collapses a cell row into styled segments, trimming trailing
// blank cells.
func renderLine(row []Cell, cols int) StyledLine {
	if len(row) > cols {
		row = row[:cols]
	}
	end := len(row)
	for end > 0 && row[end-1].Text == " " && row[end-1].Style.applied().isDefault() {
		end--
	}
	if end == 0 {
		return StyledLine{Segments: []Segment{{Text: ""}}}
	}

	var segments []Segment
	var text strings.Builder
	current := row[0].Style.applied()
	for _, cell := range row[:end] {
		style := cell.Style.applied()
		if style != current {
			segments = append(segments, makeSegment(text.String(), current))
			text.Reset()
			current = style
		}
		text.WriteString(cell.Text)
	}
	segments = append(segments, makeSegment(text.String(), current))
	return StyledLine{Segments: segments}
}

func makeSegment(text string, style Style) Segment {
	return Segment{
		Text:      text,
		FG:        style.FG,
		BG:        style.BG,
		Bold:      style.Bold,
		Italic:    style.Italic,
		Underline: style.Underline,
	}
}

// TextSnapshot returns the coarse plain-text view: scrollback tail plus grid
// content, bounded to max(rows*6, 200) lines.
func (s *Screen) TextSnapshot() string {
	limit := maxInt(s.rows*6, 200)

	var out []string
	if s.absCursorUsed {
		for _, row := range s.lines {
			out = append(out, rowText(row))
		}
	} else {
		used := s.usedGridRows()
		for _, row := range s.scrollback {
			out = append(out, rowText(row))
		}
		for _, row := range s.lines[:used] {
			out = append(out, rowText(row))
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return strings.Join(out, "\n")
}

func rowText(row []Cell) string {
	var b strings.Builder
	for _, c := range row {
		b.WriteString(c.Text)
	}
	return strings.TrimRight(b.String(), " ")
}

// Text returns the plain text of a styled line.
func (l StyledLine) Text() string {
	var b strings.Builder
	for _, seg := range l.Segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}
