package vt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// queryCarryCap bounds the carried prefix so an unterminated OSC cannot grow
// the carry forever.
const queryCarryCap = 1024

// QueryRecord is the per-window reverse-path state: the screen answering
// cursor and size probes, the DEC private-mode map, and any incomplete
// escape sequence carried across chunk boundaries.
type QueryRecord struct {
	Screen *Screen
	Modes  map[int]bool
	Carry  []byte
}

// NewQueryRecord creates a responder record bound to a screen.
func NewQueryRecord(screen *Screen) *QueryRecord {
	return &QueryRecord{Screen: screen, Modes: make(map[int]bool)}
}

// modeSet reports a DEC private mode, with autowrap (7) and cursor visible
// (25) defaulting to on.
func (r *QueryRecord) modeSet(n int) bool {
	if v, ok := r.Modes[n]; ok {
		return v
	}
	return n == 7 || n == 25
}

// Respond scans a PTY output chunk for terminal probes and returns the
// concatenated reply bytes a real terminal would send back. Non-query bytes
// pass through untouched; an incomplete trailing sequence is kept in Carry
// for the next chunk. Splitting a stream at any byte boundary produces the
// same replies as feeding it whole.
func (r *QueryRecord) Respond(chunk []byte) []byte {
	data := chunk
	if len(r.Carry) > 0 {
		data = append(r.Carry, chunk...)
		r.Carry = nil
	}

	var reply bytes.Buffer
	i := 0
	for i < len(data) {
		esc := bytes.IndexByte(data[i:], 0x1b)
		if esc < 0 {
			break
		}
		start := i + esc
		next, done := r.scanSequence(data, start, &reply)
		if !done {
			if len(data)-start <= queryCarryCap {
				r.Carry = append([]byte(nil), data[start:]...)
			}
			return reply.Bytes()
		}
		i = next
	}
	return reply.Bytes()
}

// scanSequence consumes one escape sequence starting at data[start] and
// appends any reply. done is false when the sequence runs past the end of
// the chunk.
func (r *QueryRecord) scanSequence(data []byte, start int, reply *bytes.Buffer) (next int, done bool) {
	if start+1 >= len(data) {
		return 0, false
	}
	switch data[start+1] {
	case '[':
		j := start + 2
		paramEnd := j
		for j < len(data) {
			b := data[j]
			if b >= 0x40 && b <= 0x7e {
				params := string(data[start+2 : paramEnd])
				inter := string(data[paramEnd:j])
				r.handleCSI(params, inter, b, reply)
				return j + 1, true
			}
			if b >= 0x30 && b <= 0x3f {
				if paramEnd != j {
					// Parameter byte after intermediates: malformed, drop.
					return j + 1, true
				}
				paramEnd = j + 1
			} else if b < 0x20 || b > 0x2f {
				// Not a valid CSI byte: resynchronize here.
				return j, true
			}
			j++
		}
		return 0, false

	case ']':
		payload, end, ok := scanString(data, start+2, true)
		if !ok {
			return 0, false
		}
		r.handleOSC(payload, reply)
		return end, true

	case '_':
		payload, end, ok := scanString(data, start+2, false)
		if !ok {
			return 0, false
		}
		r.handleAPC(payload, reply)
		return end, true

	default:
		return start + 2, true
	}
}

// scanString reads until ST (ESC \) or, when belOK, BEL.
func scanString(data []byte, from int, belOK bool) (payload string, end int, ok bool) {
	for j := from; j < len(data); j++ {
		if belOK && data[j] == 0x07 {
			return string(data[from:j]), j + 1, true
		}
		if data[j] == 0x1b {
			if j+1 >= len(data) {
				return "", 0, false
			}
			if data[j+1] == '\\' {
				return string(data[from:j]), j + 2, true
			}
		}
	}
	return "", 0, false
}

func (r *QueryRecord) handleCSI(params, inter string, final byte, reply *bytes.Buffer) {
	private := strings.HasPrefix(params, "?")
	raw := strings.TrimPrefix(params, "?")

	switch final {
	case 'n':
		row, col := r.Screen.Cursor()
		switch {
		case !private && raw == "6":
			fmt.Fprintf(reply, "\x1b[%d;%dR", row+1, col+1)
		case private && raw == "6":
			fmt.Fprintf(reply, "\x1b[?%d;%dR", row+1, col+1)
		case !private && raw == "5":
			reply.WriteString("\x1b[0n")
		}
	case 'c':
		if !private && inter == "" && (raw == "" || raw == "0") {
			reply.WriteString("\x1b[?62;c")
		}
	case 'p':
		if private && inter == "$" {
			if n, err := strconv.Atoi(raw); err == nil {
				status := 2
				if r.modeSet(n) {
					status = 1
				}
				fmt.Fprintf(reply, "\x1b[?%d;%d$y", n, status)
			}
		}
	case 't':
		if !private && raw == "14" {
			cols, rows := r.Screen.Size()
			fmt.Fprintf(reply, "\x1b[4;%d;%dt", rows*20, cols*11)
		}
	case 'u':
		if private && raw == "" {
			reply.WriteString("\x1b[?0u")
		}
	case 'h', 'l':
		if private {
			set := final == 'h'
			for _, part := range strings.Split(raw, ";") {
				if n, err := strconv.Atoi(part); err == nil {
					r.Modes[n] = set
				}
			}
		}
	}
}

func (r *QueryRecord) handleOSC(payload string, reply *bytes.Buffer) {
	parts := strings.Split(payload, ";")
	switch {
	case len(parts) == 2 && parts[0] == "10" && parts[1] == "?":
		reply.WriteString("\x1b]10;rgb:e5e5/e5e5/e5e5\x1b\\")
	case len(parts) == 2 && parts[0] == "11" && parts[1] == "?":
		reply.WriteString("\x1b]11;rgb:0a0a/0a0a/0a0a\x1b\\")
	case len(parts) == 3 && parts[0] == "4" && parts[2] == "?":
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			return
		}
		red, green, blue, ok := Xterm256RGB(index)
		if !ok {
			return
		}
		fmt.Fprintf(reply, "\x1b]4;%d;rgb:%02x%02x/%02x%02x/%02x%02x\x1b\\",
			index, red, red, green, green, blue, blue)
	}
}

func (r *QueryRecord) handleAPC(payload string, reply *bytes.Buffer) {
	// Kitty graphics handshake: reply OK to query actions so the CLI assumes
	// graphics support and keeps rendering.
	if strings.HasPrefix(payload, "G") && strings.Contains(payload, "q") {
		reply.WriteString("\x1b_Gi=31337;OK\x1b\\")
	}
}
