package canvas

import (
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

// Background is the color of a blank surface.
var Background = gg.White

// ParseColor accepts "#RGB", "#RRGGBB", "#RRGGBBAA" or an SVG color name.
// Anything else renders black.
func ParseColor(s string) gg.RGBA {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		switch len(s) - 1 {
		case 3, 4, 6, 8:
			if isHex(s[1:]) {
				return gg.Hex(s)
			}
		}
		return gg.Black
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return gg.FromColor(c)
	}
	return gg.Black
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
