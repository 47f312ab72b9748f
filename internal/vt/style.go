// Package vt implements a small ANSI terminal interpreter for agent PTYs.
// It understands the escape sequences interactive coding CLIs actually emit
// (CSI cursor motion and erases, SGR styling, OSC titles, alternate screen)
// and keeps a cell grid plus scrollback that can be snapshotted for chat.
package vt

// Style is the SGR state carried across writes and stamped onto cells.
// FG/BG are "#rrggbb" strings; empty means the terminal default.
type Style struct {
	FG        string
	BG        string
	Bold      bool
	Italic    bool
	Underline bool
	Inverse   bool
}

// Cell is one grid position. Text holds the base glyph plus any combining
// marks that landed on it; a blank cell holds a single space.
type Cell struct {
	Text  string
	Style Style
}

func blankCell() Cell {
	return Cell{Text: " "}
}

func makeRow(cols int) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = blankCell()
	}
	return row
}

// applied resolves inverse video by swapping fg/bg, so renderers never see
// the Inverse bit.
func (s Style) applied() Style {
	if !s.Inverse {
		return s
	}
	return Style{
		FG:        s.BG,
		BG:        s.FG,
		Bold:      s.Bold,
		Italic:    s.Italic,
		Underline: s.Underline,
	}
}

func (s Style) isDefault() bool {
	return s == Style{}
}
