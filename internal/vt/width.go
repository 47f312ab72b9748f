package vt

import "github.com/mattn/go-runewidth"

// runeDisplayWidth returns how many columns a rune occupies: 0 for controls,
// combining marks, variation selectors and ZWJ; 2 for East-Asian wide glyphs
// and emoji; 1 otherwise.
func runeDisplayWidth(r rune) int {
	if r == 0 {
		return 0
	}
	if r < 0x20 || (r >= 0x7f && r < 0xa0) {
		return 0
	}
	// Joiners and selectors attach to the previous cell.
	if r == 0x200d || (r >= 0xfe00 && r <= 0xfe0f) {
		return 0
	}
	return runewidth.RuneWidth(r)
}
