package media

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	TextBlack    = "#000000"
	TextWhite    = "#FFFFFF"
	TextFallback = TextWhite
)

// ContrastColor picks black or white text for the given background.
// Backgrounds with luminance above 0.5 get black text.
func ContrastColor(background string) string {
	hex := strings.TrimSpace(background)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if !isHexColor(hex) {
		return TextFallback
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return TextFallback
	}
	r, g, b := c.RGB255()
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	if luminance > 0.5 {
		return TextBlack
	}
	return TextWhite
}

func isHexColor(s string) bool {
	digits := strings.TrimPrefix(s, "#")
	if len(digits) != 3 && len(digits) != 6 {
		return false
	}
	for _, r := range digits {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
