// Package display renders the calculator screen: four right-justified text
// lines with the input line at the bottom, plus a transient status message
// over the top line.
package display

import "strings"

// Lines is the number of text lines on screen. Line 0 is the input line.
const Lines = 4

// Severity selects how a status message is drawn.
type Severity uint8

const (
	Info Severity = iota
	Error
)

// Message is a transient status line.
type Message struct {
	Text     string
	Severity Severity
}

// Frame is the text content of the screen.
type Frame struct {
	lines   [Lines]string
	msg     Message
	showing bool
}

// SetLine sets line i, right-justified.
func (f *Frame) SetLine(i int, text string) {
	f.set(i, text)
}

// set is SetLine reporting whether the line changed.
func (f *Frame) set(i int, text string) bool {
	if i < 0 || i >= Lines {
		return false
	}
	text = Justify(text, LineWidth)
	if f.lines[i] == text {
		return false
	}
	f.lines[i] = text
	return true
}

// Line returns the justified text of line i.
func (f *Frame) Line(i int) string {
	if i < 0 || i >= Lines {
		return ""
	}
	return f.lines[i]
}

func (f *Frame) ShowMessage(m Message) {
	f.msg = m
	f.showing = true
}

func (f *Frame) HideMessage() {
	f.showing = false
}

// Message returns the visible message, if any.
func (f *Frame) Message() (Message, bool) {
	return f.msg, f.showing
}

// String draws the frame as text: the message row, then lines from top
// (oldest history) to bottom (input).
func (f *Frame) String() string {
	border := "+" + strings.Repeat("-", LineWidth) + "+\n"

	var b strings.Builder
	b.WriteString(border)
	msg := ""
	if f.showing {
		msg = f.msg.Text
		if f.msg.Severity == Error {
			msg = "ERR:" + msg
		}
	}
	b.WriteString("|" + Pad(msg, LineWidth) + "|\n")
	b.WriteString(border)
	for i := Lines - 1; i >= 0; i-- {
		line := f.lines[i]
		if line == "" {
			line = strings.Repeat(" ", LineWidth)
		}
		b.WriteString("|" + line + "|\n")
	}
	b.WriteString(border)
	return b.String()
}
