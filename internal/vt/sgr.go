package vt

// applySGR updates the carried style from an SGR parameter list.
// Unsupported attributes are ignored.
func (s *Screen) applySGR(params []int) {
	if len(params) == 0 || (len(params) == 1 && params[0] < 0) {
		s.style = Style{}
		return
	}

	for i := 0; i < len(params); i++ {
		code := params[i]
		if code < 0 {
			code = 0
		}
		switch {
		case code == 0:
			s.style = Style{}
		case code == 1:
			s.style.Bold = true
		case code == 3:
			s.style.Italic = true
		case code == 4:
			s.style.Underline = true
		case code == 7:
			s.style.Inverse = true
		case code == 22:
			s.style.Bold = false
		case code == 23:
			s.style.Italic = false
		case code == 24:
			s.style.Underline = false
		case code == 27:
			s.style.Inverse = false
		case code >= 30 && code <= 37:
			s.style.FG = Ansi16Color(code - 30)
		case code == 39:
			s.style.FG = ""
		case code >= 40 && code <= 47:
			s.style.BG = Ansi16Color(code - 40)
		case code == 49:
			s.style.BG = ""
		case code >= 90 && code <= 97:
			s.style.FG = Ansi16Color(code - 90 + 8)
		case code >= 100 && code <= 107:
			s.style.BG = Ansi16Color(code - 100 + 8)
		case code == 38 || code == 48:
			color, consumed := extendedColor(params[i+1:])
			if color != "" {
				if code == 38 {
					s.style.FG = color
				} else {
					s.style.BG = color
				}
			}
			i += consumed
		}
	}
}

// extendedColor parses the tail of a 38/48 sequence: "5;N" (xterm-256) or
// "2;R;G;B" (truecolor). Returns the color and how many params were used.
func extendedColor(rest []int) (string, int) {
	if len(rest) == 0 {
		return "", 0
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return "", len(rest)
		}
		if color, ok := Xterm256Color(rest[1]); ok {
			return color, 2
		}
		return "", 2
	case 2:
		if len(rest) < 4 {
			return "", len(rest)
		}
		if rest[1] < 0 || rest[2] < 0 || rest[3] < 0 {
			return "", 4
		}
		return rgbHex(rest[1], rest[2], rest[3]), 4
	default:
		return "", 1
	}
}
