package vt

import "fmt"

// ansi16 is the base 16-color palette (VS Code defaults, matching what the
// hosted terminals render).
var ansi16 = [16]string{
	"#000000", "#cd3131", "#0dbc79", "#e5e510",
	"#2472c8", "#bc3fbc", "#11a8cd", "#e5e5e5",
	"#666666", "#f14c4c", "#23d18b", "#f5f543",
	"#3b8eea", "#d670d6", "#29b8db", "#ffffff",
}

// cubeLevels maps a 0-5 cube component to its channel value.
var cubeLevels = [6]int{0, 95, 135, 175, 215, 255}

// Ansi16Color returns the hex color for a base palette index, or "" when the
// index is out of range.
func Ansi16Color(index int) string {
	if index < 0 || index >= len(ansi16) {
		return ""
	}
	return ansi16[index]
}

func rgbHex(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", clampChannel(r), clampChannel(g), clampChannel(b))
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Xterm256Color resolves an xterm-256 palette index to a hex color.
// Indices 0-15 come from the base palette, 16-231 from the 6x6x6 cube and
// 232-255 from the grayscale ramp. ok is false for out-of-range indices.
func Xterm256Color(index int) (string, bool) {
	r, g, b, ok := Xterm256RGB(index)
	if !ok {
		return "", false
	}
	return rgbHex(r, g, b), true
}

// Xterm256RGB returns the 8-bit channel values for an xterm-256 index.
func Xterm256RGB(index int) (r, g, b int, ok bool) {
	switch {
	case index < 0 || index > 255:
		return 0, 0, 0, false
	case index < 16:
		hex := ansi16[index]
		fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
		return r, g, b, true
	case index >= 232:
		v := 8 + (index-232)*10
		return v, v, v, true
	default:
		i := index - 16
		return cubeLevels[i/36], cubeLevels[(i%36)/6], cubeLevels[i%6], true
	}
}
