package vt

const (
	// MinCols..MaxRows bound the grid dimensions a screen will accept.
	MinCols = 20
	MaxCols = 240
	MinRows = 6
	MaxRows = 120

	// scrollbackCap bounds the styled scrollback ring. Retired lines beyond
	// this are dropped oldest-first.
	scrollbackCap = 2000
)

// savedScreen captures the primary screen while the alternate screen is
// active (CSI ?1049h / ?47h).
type savedScreen struct {
	lines         [][]Cell
	cursorRow     int
	cursorCol     int
	savedRow      int
	savedCol      int
	style         Style
	scrollTop     int
	scrollBottom  int
	cursorVisible bool
}

// Screen is the cell grid fed by a single PTY. Not safe for concurrent use;
// each window's read loop owns its screen exclusively.
type Screen struct {
	cols, rows int

	lines      [][]Cell
	scrollback [][]Cell

	cursorRow, cursorCol int
	savedRow, savedCol   int

	style         Style
	scrollTop     int
	scrollBottom  int
	wrapPending   bool
	cursorVisible bool

	savedPrimary *savedScreen

	// privateModes tracks DEC private modes set via CSI ?N h/l.
	privateModes map[int]bool

	// absCursorUsed flips snapshot behavior from "tail of buffer" to
	// "top of grid" once the stream positions the cursor absolutely or
	// clears the display.
	absCursorUsed bool

	parser parserState
}

// NewScreen creates a screen with the given dimensions, clamped to the
// supported range.
func NewScreen(cols, rows int) *Screen {
	cols = clampInt(cols, MinCols, MaxCols)
	rows = clampInt(rows, MinRows, MaxRows)
	s := &Screen{
		cols:          cols,
		rows:          rows,
		scrollBottom:  rows - 1,
		cursorVisible: true,
		privateModes:  make(map[int]bool),
	}
	s.lines = make([][]Cell, rows)
	for i := range s.lines {
		s.lines[i] = makeRow(cols)
	}
	return s
}

// Size returns the current grid dimensions.
func (s *Screen) Size() (cols, rows int) { return s.cols, s.rows }

// Cursor returns the current 0-based cursor position.
func (s *Screen) Cursor() (row, col int) {
	return minInt(s.cursorRow, s.rows-1), minInt(s.cursorCol, s.cols-1)
}

// CursorVisible reports whether CSI ?25l has hidden the cursor.
func (s *Screen) CursorVisible() bool { return s.cursorVisible }

// PrivateMode reports the tracked state of a DEC private mode. Modes 7
// (autowrap) and 25 (cursor visible) default to on when never touched.
func (s *Screen) PrivateMode(n int) bool {
	if v, ok := s.privateModes[n]; ok {
		return v
	}
	return n == 7 || n == 25
}

// Resize clips or pads the grid to the new dimensions, preserving content.
func (s *Screen) Resize(cols, rows int) {
	cols = clampInt(cols, MinCols, MaxCols)
	rows = clampInt(rows, MinRows, MaxRows)
	if cols == s.cols && rows == s.rows {
		return
	}
	s.lines = resizeGrid(s.lines, cols, rows)
	if s.savedPrimary != nil {
		s.savedPrimary.lines = resizeGrid(s.savedPrimary.lines, cols, rows)
	}
	s.cols, s.rows = cols, rows
	s.cursorRow = minInt(s.cursorRow, rows-1)
	s.cursorCol = minInt(s.cursorCol, cols-1)
	s.savedRow = minInt(s.savedRow, rows-1)
	s.savedCol = minInt(s.savedCol, cols-1)
	s.scrollTop = 0
	s.scrollBottom = rows - 1
	s.wrapPending = false
}

func resizeGrid(lines [][]Cell, cols, rows int) [][]Cell {
	out := make([][]Cell, rows)
	for i := 0; i < rows; i++ {
		row := makeRow(cols)
		if i < len(lines) {
			copy(row, lines[i])
		}
		out[i] = row
	}
	return out
}

func (s *Screen) lineFeed() {
	if s.cursorRow >= s.scrollTop && s.cursorRow <= s.scrollBottom {
		if s.cursorRow == s.scrollBottom {
			s.scrollRegionUp(s.scrollTop, s.scrollBottom, 1)
		} else {
			s.cursorRow = minInt(s.cursorRow+1, s.rows-1)
		}
		return
	}
	s.cursorRow = minInt(s.cursorRow+1, s.rows-1)
}

func (s *Screen) reverseIndex() {
	if s.cursorRow >= s.scrollTop && s.cursorRow <= s.scrollBottom {
		if s.cursorRow == s.scrollTop {
			s.scrollRegionDown(s.scrollTop, s.scrollBottom, 1)
		} else {
			s.cursorRow--
		}
		return
	}
	s.cursorRow = maxInt(s.cursorRow-1, 0)
}

// scrollRegionUp removes count lines at top and inserts blanks at bottom.
// The retired top line enters scrollback only when the region spans the full
// screen and the primary buffer is active.
func (s *Screen) scrollRegionUp(top, bottom, count int) {
	if top >= bottom || bottom >= s.rows {
		return
	}
	n := clampInt(count, 1, bottom-top+1)
	fullScreen := top == 0 && bottom == s.rows-1
	for i := 0; i < n; i++ {
		retired := s.lines[top]
		copy(s.lines[top:bottom], s.lines[top+1:bottom+1])
		s.lines[bottom] = makeRow(s.cols)
		if fullScreen && s.savedPrimary == nil {
			s.retireLine(retired)
		}
	}
}

func (s *Screen) scrollRegionDown(top, bottom, count int) {
	if top >= bottom || bottom >= s.rows {
		return
	}
	n := clampInt(count, 1, bottom-top+1)
	for i := 0; i < n; i++ {
		copy(s.lines[top+1:bottom+1], s.lines[top:bottom])
		s.lines[top] = makeRow(s.cols)
	}
}

func (s *Screen) retireLine(line []Cell) {
	s.scrollback = append(s.scrollback, line)
	if len(s.scrollback) > scrollbackCap {
		drop := len(s.scrollback) - scrollbackCap
		s.scrollback = append([][]Cell(nil), s.scrollback[drop:]...)
	}
}

func (s *Screen) eraseDisplay(mode int) {
	s.absCursorUsed = true
	switch mode {
	case 0:
		s.eraseLine(0)
		for row := s.cursorRow + 1; row < s.rows; row++ {
			s.lines[row] = makeRow(s.cols)
		}
	case 1:
		for row := 0; row < s.cursorRow; row++ {
			s.lines[row] = makeRow(s.cols)
		}
		s.eraseLine(1)
	case 2, 3:
		for row := 0; row < s.rows; row++ {
			s.lines[row] = makeRow(s.cols)
		}
	}
}

func (s *Screen) eraseLine(mode int) {
	row := minInt(s.cursorRow, s.rows-1)
	switch mode {
	case 0:
		for col := s.cursorCol; col < s.cols; col++ {
			s.lines[row][col] = blankCell()
		}
	case 1:
		for col := 0; col <= minInt(s.cursorCol, s.cols-1); col++ {
			s.lines[row][col] = blankCell()
		}
	case 2:
		s.lines[row] = makeRow(s.cols)
	}
}

func (s *Screen) insertLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	s.scrollRegionDown(s.cursorRow, s.scrollBottom, n)
}

func (s *Screen) deleteLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	n = clampInt(n, 1, s.scrollBottom-s.cursorRow+1)
	for i := 0; i < n; i++ {
		copy(s.lines[s.cursorRow:s.scrollBottom], s.lines[s.cursorRow+1:s.scrollBottom+1])
		s.lines[s.scrollBottom] = makeRow(s.cols)
	}
}

func (s *Screen) insertChars(n int) {
	row := s.lines[s.cursorRow]
	n = clampInt(n, 1, s.cols-s.cursorCol)
	copy(row[s.cursorCol+n:], row[s.cursorCol:s.cols-n])
	for col := s.cursorCol; col < s.cursorCol+n && col < s.cols; col++ {
		row[col] = blankCell()
	}
}

func (s *Screen) deleteChars(n int) {
	row := s.lines[s.cursorRow]
	n = clampInt(n, 1, s.cols-s.cursorCol)
	copy(row[s.cursorCol:], row[s.cursorCol+n:])
	for col := s.cols - n; col < s.cols; col++ {
		row[col] = blankCell()
	}
}

func (s *Screen) enterAltScreen() {
	if s.savedPrimary != nil {
		return
	}
	s.savedPrimary = &savedScreen{
		lines:         s.lines,
		cursorRow:     s.cursorRow,
		cursorCol:     s.cursorCol,
		savedRow:      s.savedRow,
		savedCol:      s.savedCol,
		style:         s.style,
		scrollTop:     s.scrollTop,
		scrollBottom:  s.scrollBottom,
		cursorVisible: s.cursorVisible,
	}
	s.lines = make([][]Cell, s.rows)
	for i := range s.lines {
		s.lines[i] = makeRow(s.cols)
	}
	s.cursorRow, s.cursorCol = 0, 0
	s.savedRow, s.savedCol = 0, 0
	s.style = Style{}
	s.scrollTop, s.scrollBottom = 0, s.rows-1
	s.wrapPending = false
}

func (s *Screen) leaveAltScreen() {
	saved := s.savedPrimary
	if saved == nil {
		return
	}
	s.savedPrimary = nil
	s.lines = saved.lines
	s.cursorRow = minInt(saved.cursorRow, s.rows-1)
	s.cursorCol = minInt(saved.cursorCol, s.cols-1)
	s.savedRow = minInt(saved.savedRow, s.rows-1)
	s.savedCol = minInt(saved.savedCol, s.cols-1)
	s.style = saved.style
	s.scrollTop = minInt(saved.scrollTop, s.rows-1)
	s.scrollBottom = minInt(saved.scrollBottom, s.rows-1)
	s.cursorVisible = saved.cursorVisible
	s.wrapPending = false
}

func (s *Screen) reset() {
	for i := range s.lines {
		s.lines[i] = makeRow(s.cols)
	}
	s.cursorRow, s.cursorCol = 0, 0
	s.savedRow, s.savedCol = 0, 0
	s.style = Style{}
	s.scrollTop, s.scrollBottom = 0, s.rows-1
	s.wrapPending = false
	s.cursorVisible = true
	s.savedPrimary = nil
}

// writeRune places a printable rune at the cursor, handling deferred wrap
// and double-width glyphs. A width-2 glyph at the last column wraps first.
func (s *Screen) writeRune(r rune) {
	if s.rows == 0 || s.cols == 0 {
		return
	}
	width := runeDisplayWidth(r)
	if width == 0 {
		// Combining mark: attach to the previous cell.
		prevCol := s.cursorCol
		if prevCol > 0 {
			prevCol--
		}
		if s.cursorRow < s.rows && prevCol < s.cols {
			s.lines[s.cursorRow][prevCol].Text += string(r)
		}
		return
	}

	if s.wrapPending {
		s.cursorCol = 0
		s.lineFeed()
		s.wrapPending = false
	}
	if s.cursorCol >= s.cols || (width == 2 && s.cursorCol == s.cols-1) {
		s.cursorCol = 0
		s.lineFeed()
	}

	s.lines[s.cursorRow][s.cursorCol] = Cell{Text: string(r), Style: s.style}
	if width == 2 && s.cursorCol+1 < s.cols {
		// Shadow cell under the wide glyph.
		s.lines[s.cursorRow][s.cursorCol+1] = Cell{Text: "", Style: s.style}
	}

	if s.cursorCol+width >= s.cols {
		s.cursorCol = s.cols - 1
		s.wrapPending = true
	} else {
		s.cursorCol += width
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
