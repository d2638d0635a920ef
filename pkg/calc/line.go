package calc

import "strings"

// Operators that the input line treats specially when typed.
const Operators = "+-*/"

// InputLine is the text being typed, limited to Width characters.
type InputLine struct {
	buf []byte
}

func (l *InputLine) Text() string { return string(l.buf) }

func (l *InputLine) Len() int { return len(l.buf) }

func (l *InputLine) Clear() { l.buf = l.buf[:0] }

// Set replaces the line, truncating to Width.
func (l *InputLine) Set(s string) {
	if len(s) > Width {
		s = s[:Width]
	}
	l.buf = append(l.buf[:0], s...)
}

// Backspace removes the last character.
func (l *InputLine) Backspace() {
	if len(l.buf) > 0 {
		l.buf = l.buf[:len(l.buf)-1]
	}
}

// Insert appends s. A single operator typed after another operator replaces
// it, and a lone blank is always replaced. It returns false when the line has
// no room for s.
func (l *InputLine) Insert(s string) bool {
	if s == "" {
		return true
	}
	n := len(l.buf)
	if n == 1 && l.buf[0] == ' ' {
		l.buf = append(l.buf[:0], s...)
		return true
	}
	if isOperator(s) && n > 0 && isOperator(string(l.buf[n-1])) {
		l.buf = append(l.buf[:n-1], s...)
		return true
	}
	if n+len(s) > Width {
		return false
	}
	l.buf = append(l.buf, s...)
	return true
}

// TrimSuffix removes s from the end of the line if present.
func (l *InputLine) TrimSuffix(s string) bool {
	t := l.Text()
	if s == "" || !strings.HasSuffix(t, s) {
		return false
	}
	l.buf = l.buf[:len(l.buf)-len(s)]
	return true
}

func isOperator(s string) bool {
	return len(s) == 1 && strings.Contains(Operators, s)
}
