package vt

import "unicode/utf8"

// Parser states. Escape sequences arrive split across arbitrary chunk
// boundaries, so the state lives on the screen between writes.
const (
	stateGround = iota
	stateEsc
	stateCSI
	stateOSC
	stateOSCEsc
	stateAPC
	stateAPCEsc
)

type parserState struct {
	state    int
	csiParam []byte
	csiInter []byte
	utf8Tail []byte
}

// Write feeds raw PTY bytes into the screen. Malformed sequences never
// error; the parser drops them and resynchronizes at the next ESC or
// printable.
func (s *Screen) Write(data []byte) (int, error) {
	n := len(data)
	if len(s.parser.utf8Tail) > 0 {
		data = append(s.parser.utf8Tail, data...)
		s.parser.utf8Tail = nil
	}

	i := 0
	for i < len(data) {
		b := data[i]
		switch s.parser.state {
		case stateGround:
			switch {
			case b == 0x1b:
				s.parser.state = stateEsc
				i++
			case b == '\r':
				s.cursorCol = 0
				s.wrapPending = false
				i++
			case b == '\n':
				s.wrapPending = false
				s.lineFeed()
				i++
			case b == 0x08:
				s.wrapPending = false
				s.cursorCol = maxInt(s.cursorCol-1, 0)
				i++
			case b == '\t':
				spaces := 8 - s.cursorCol%8
				for j := 0; j < spaces; j++ {
					s.writeRune(' ')
				}
				i++
			case b < 0x20 || b == 0x7f:
				i++
			default:
				r, size := utf8.DecodeRune(data[i:])
				if r == utf8.RuneError && size == 1 && !utf8.FullRune(data[i:]) {
					s.parser.utf8Tail = append([]byte(nil), data[i:]...)
					return n, nil
				}
				s.writeRune(r)
				i += size
			}

		case stateEsc:
			switch b {
			case '[':
				s.parser.state = stateCSI
				s.parser.csiParam = s.parser.csiParam[:0]
				s.parser.csiInter = s.parser.csiInter[:0]
			case ']':
				s.parser.state = stateOSC
			case '_':
				s.parser.state = stateAPC
			case '7':
				s.savedRow, s.savedCol = s.cursorRow, s.cursorCol
				s.wrapPending = false
				s.parser.state = stateGround
			case '8':
				s.cursorRow = minInt(s.savedRow, s.rows-1)
				s.cursorCol = minInt(s.savedCol, s.cols-1)
				s.wrapPending = false
				s.parser.state = stateGround
			case 'D':
				s.wrapPending = false
				s.lineFeed()
				s.parser.state = stateGround
			case 'E':
				s.wrapPending = false
				s.cursorCol = 0
				s.lineFeed()
				s.parser.state = stateGround
			case 'M':
				s.wrapPending = false
				s.reverseIndex()
				s.parser.state = stateGround
			case 'c':
				s.reset()
				s.parser.state = stateGround
			default:
				// Unknown 2-byte sequence, consumed and ignored.
				s.parser.state = stateGround
			}
			i++

		case stateCSI:
			switch {
			case b >= 0x30 && b <= 0x3f:
				s.parser.csiParam = append(s.parser.csiParam, b)
				i++
			case b >= 0x20 && b <= 0x2f:
				s.parser.csiInter = append(s.parser.csiInter, b)
				i++
			case b >= 0x40 && b <= 0x7e:
				s.handleCSI(string(s.parser.csiParam), string(s.parser.csiInter), b)
				s.parser.state = stateGround
				i++
			default:
				// Malformed: drop the sequence, reprocess the byte in ground.
				s.parser.state = stateGround
			}

		case stateOSC:
			switch b {
			case 0x07:
				s.parser.state = stateGround
			case 0x1b:
				s.parser.state = stateOSCEsc
			}
			i++

		case stateOSCEsc:
			switch b {
			case '\\':
				s.parser.state = stateGround
				i++
			case 0x1b:
				// stay, waiting for the terminator
				i++
			default:
				// The ESC opened a new sequence, not ST: the OSC was
				// unterminated. Drop it and reprocess the byte after ESC.
				s.parser.state = stateEsc
			}

		case stateAPC:
			switch b {
			case 0x1b:
				s.parser.state = stateAPCEsc
			}
			i++

		case stateAPCEsc:
			switch b {
			case '\\':
				s.parser.state = stateGround
				i++
			case 0x1b:
				// stay
				i++
			default:
				// Unterminated APC; the ESC starts a fresh sequence.
				s.parser.state = stateEsc
			}
		}
	}
	return n, nil
}

// handleCSI applies one complete control sequence to the grid.
func (s *Screen) handleCSI(rawParams, intermediates string, final byte) {
	private := len(rawParams) > 0 && rawParams[0] == '?'
	if private {
		rawParams = rawParams[1:]
	}
	params := parseParams(rawParams)

	switch final {
	case 'A':
		s.wrapPending = false
		s.cursorRow = maxInt(s.cursorRow-paramOr(params, 0, 1), 0)
	case 'B':
		s.wrapPending = false
		s.cursorRow = minInt(s.cursorRow+paramOr(params, 0, 1), s.rows-1)
	case 'C':
		s.wrapPending = false
		s.cursorCol = minInt(s.cursorCol+paramOr(params, 0, 1), s.cols-1)
	case 'D':
		s.wrapPending = false
		s.cursorCol = maxInt(s.cursorCol-paramOr(params, 0, 1), 0)
	case 'E':
		s.wrapPending = false
		s.cursorCol = 0
		s.cursorRow = minInt(s.cursorRow+paramOr(params, 0, 1), s.rows-1)
	case 'F':
		s.wrapPending = false
		s.cursorCol = 0
		s.cursorRow = maxInt(s.cursorRow-paramOr(params, 0, 1), 0)
	case 'G':
		s.wrapPending = false
		s.absCursorUsed = true
		s.cursorCol = clampInt(paramOr(params, 0, 1)-1, 0, s.cols-1)
	case 'd':
		s.wrapPending = false
		s.absCursorUsed = true
		s.cursorRow = clampInt(paramOr(params, 0, 1)-1, 0, s.rows-1)
	case 'H', 'f':
		s.wrapPending = false
		s.absCursorUsed = true
		s.cursorRow = clampInt(paramOr(params, 0, 1)-1, 0, s.rows-1)
		s.cursorCol = clampInt(paramOr(params, 1, 1)-1, 0, s.cols-1)
	case 'J':
		s.wrapPending = false
		s.eraseDisplay(paramOr(params, 0, 0))
	case 'K':
		s.wrapPending = false
		s.eraseLine(paramOr(params, 0, 0))
	case 'L':
		s.wrapPending = false
		s.insertLines(paramOr(params, 0, 1))
	case 'M':
		s.wrapPending = false
		s.deleteLines(paramOr(params, 0, 1))
	case '@':
		s.insertChars(paramOr(params, 0, 1))
	case 'P':
		s.deleteChars(paramOr(params, 0, 1))
	case 'S':
		s.scrollRegionUp(s.scrollTop, s.scrollBottom, paramOr(params, 0, 1))
	case 'T':
		s.scrollRegionDown(s.scrollTop, s.scrollBottom, paramOr(params, 0, 1))
	case 'm':
		s.applySGR(params)
	case 'r':
		top := clampInt(paramOr(params, 0, 1)-1, 0, s.rows-1)
		bottom := clampInt(paramOr(params, 1, s.rows)-1, 0, s.rows-1)
		if top < bottom {
			s.scrollTop, s.scrollBottom = top, bottom
			s.cursorRow, s.cursorCol = top, 0
			s.wrapPending = false
		}
	case 's':
		s.savedRow, s.savedCol = s.cursorRow, s.cursorCol
		s.wrapPending = false
	case 'u':
		s.cursorRow = minInt(s.savedRow, s.rows-1)
		s.cursorCol = minInt(s.savedCol, s.cols-1)
		s.wrapPending = false
	case 'h', 'l':
		if !private {
			return
		}
		set := final == 'h'
		for _, p := range params {
			if p < 0 {
				continue
			}
			s.privateModes[p] = set
			switch p {
			case 25:
				s.cursorVisible = set
			case 1049, 47:
				if set {
					s.enterAltScreen()
				} else {
					s.leaveAltScreen()
				}
			}
		}
		s.wrapPending = false
	}
}

// parseParams splits a CSI parameter string. Missing parameters are -1 so
// callers can distinguish "absent" from an explicit zero.
func parseParams(raw string) []int {
	if raw == "" {
		return []int{-1}
	}
	params := make([]int, 0, 4)
	value, has := 0, false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			value = value*10 + int(c-'0')
			has = true
		case c == ';':
			params = append(params, pick(value, has))
			value, has = 0, false
		default:
			// Sub-parameters and other parameter bytes are ignored.
		}
	}
	return append(params, pick(value, has))
}

func pick(v int, has bool) int {
	if !has {
		return -1
	}
	return v
}

func paramOr(params []int, index, def int) int {
	if index >= len(params) || params[index] < 0 {
		return def
	}
	v := params[index]
	if v < 1 && def >= 1 {
		return def
	}
	return v
}
