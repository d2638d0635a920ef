package display

import (
	"image/color"
	"log/slog"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	margin = 4
	// baseline offset of the line font within a row
	lineBaseline = 14
	msgBaseline  = 12
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
	blue  = color.RGBA{0, 0, 160, 255}
	red   = color.RGBA{192, 0, 0, 255}
)

// Panel draws a Frame onto a pixel display. Only rows whose content changed
// are redrawn.
type Panel struct {
	dev       drivers.Displayer
	lineFont  tinyfont.Fonter
	msgFont   tinyfont.Fonter
	frame     Frame
	width     int16
	rowHeight int16
	log       *slog.Logger
}

// NewPanel clears dev and returns a Panel drawing on it.
func NewPanel(dev drivers.Displayer, log *slog.Logger) *Panel {
	if log == nil {
		log = slog.Default()
	}
	w, h := dev.Size()
	p := &Panel{
		dev:       dev,
		lineFont:  &freemono.Regular9pt7b,
		msgFont:   &proggy.TinySZ8pt7b,
		width:     w,
		rowHeight: h / Lines,
		log:       log,
	}
	for row := 0; row < Lines; row++ {
		p.clearRow(row, black)
	}
	p.refresh()
	return p
}

// Frame returns the text currently shown.
func (p *Panel) Frame() *Frame { return &p.frame }

// SetLine changes line i and redraws it if needed.
func (p *Panel) SetLine(i int, text string) {
	if !p.frame.set(i, text) {
		return
	}
	row := rowOf(i)
	if row == 0 && p.frame.showing {
		// covered by the message until it is hidden
		return
	}
	p.drawLine(i)
	p.refresh()
}

// ShowMessage draws m over the top line.
func (p *Panel) ShowMessage(m Message) {
	p.frame.ShowMessage(m)
	bg := blue
	if m.Severity == Error {
		bg = red
	}
	p.clearRow(0, bg)
	tinyfont.WriteLine(p.dev, p.msgFont, margin, msgBaseline, truncate(m.Text, 2*LineWidth), white)
	p.refresh()
}

// HideMessage removes the message and restores the top line.
func (p *Panel) HideMessage() {
	if !p.frame.showing {
		return
	}
	p.frame.HideMessage()
	p.drawLine(Lines - 1)
	p.refresh()
}

// rowOf maps a line index to a screen row; the input line is the bottom row.
func rowOf(line int) int { return Lines - 1 - line }

func (p *Panel) drawLine(i int) {
	row := rowOf(i)
	p.clearRow(row, black)

	text := trimLeft(p.frame.Line(i))
	if text == "" {
		return
	}
	_, outbox := tinyfont.LineWidth(p.lineFont, text)
	x := p.width - int16(outbox) - margin
	if x < 0 {
		x = 0
	}
	y := int16(row)*p.rowHeight + lineBaseline
	tinyfont.WriteLine(p.dev, p.lineFont, x, y, text, white)
}

// clearRow fills one screen row with c.
func (p *Panel) clearRow(row int, c color.RGBA) {
	yStart := int16(row) * p.rowHeight
	for y := yStart; y < yStart+p.rowHeight; y++ {
		for x := int16(0); x < p.width; x++ {
			p.dev.SetPixel(x, y, c)
		}
	}
}

func (p *Panel) refresh() {
	if err := p.dev.Display(); err != nil {
		p.log.Warn("display refresh failed", "err", err)
	}
}

func trimLeft(s string) string {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return s[i:]
}
