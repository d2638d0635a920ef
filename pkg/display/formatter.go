package display

import "strings"

// LineWidth is the number of characters on one display line.
const LineWidth = 17

// Justify right-aligns s in a field of width characters. Longer text keeps
// its rightmost characters, which hold the most recent input.
func Justify(s string, width int) string {
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// Pad left-aligns s in a field of width characters, truncating with "..".
func Pad(s string, width int) string {
	s = truncate(s, width)
	return s + strings.Repeat(" ", width-len(s))
}

// truncate limits a string to maxLen characters, adding ".." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 2 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
