package display

import (
	"image/color"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJustify(t *testing.T) {
	assert.Equal(t, "                5", Justify("5", LineWidth))
	assert.Equal(t, "23456789012345678", Justify("123456789012345678", LineWidth))
	assert.Equal(t, "abc  ", Pad("abc", 5))
	assert.Equal(t, "abc..", Pad("abcdefg", 5))
}

func TestFrameGolden(t *testing.T) {
	var f Frame
	f.SetLine(0, "2+3")
	f.SetLine(1, "20")
	f.SetLine(2, "5")
	f.SetLine(3, "")
	f.ShowMessage(Message{Text: "syntax error", Severity: Error})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "frame_error", []byte(f.String()))
}

func TestFrameMessage(t *testing.T) {
	var f Frame
	_, ok := f.Message()
	assert.False(t, ok)

	f.ShowMessage(Message{Text: "stored"})
	m, ok := f.Message()
	assert.True(t, ok)
	assert.Equal(t, "stored", m.Text)

	f.HideMessage()
	_, ok = f.Message()
	assert.False(t, ok)
}

func TestFrameSetLine(t *testing.T) {
	var f Frame
	assert.True(t, f.set(0, "1"))
	assert.False(t, f.set(0, "1"), "unchanged line")
	assert.False(t, f.set(Lines, "x"))
	assert.Equal(t, "", f.Line(-1))

	f.SetLine(1, "42")
	assert.Equal(t, "               42", f.Line(1))
}

// pixels is an in-memory drivers.Displayer.
type pixels struct {
	w, h     int16
	buf      map[[2]int16]color.RGBA
	displays int
}

func newPixels(w, h int16) *pixels {
	return &pixels{w: w, h: h, buf: map[[2]int16]color.RGBA{}}
}

func (p *pixels) Size() (int16, int16) { return p.w, p.h }

func (p *pixels) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= p.w || y >= p.h {
		return
	}
	p.buf[[2]int16{x, y}] = c
}

func (p *pixels) Display() error {
	p.displays++
	return nil
}

// lit returns the horizontal extent of white pixels in rows y0..y1.
func (p *pixels) lit(y0, y1 int16) (minX, maxX int16, n int) {
	minX, maxX = p.w, -1
	for k, c := range p.buf {
		if c != white || k[1] < y0 || k[1] >= y1 {
			continue
		}
		n++
		if k[0] < minX {
			minX = k[0]
		}
		if k[0] > maxX {
			maxX = k[0]
		}
	}
	return minX, maxX, n
}

func TestPanelDrawsRightAligned(t *testing.T) {
	dev := newPixels(284, 76)
	p := NewPanel(dev, nil)
	require.Equal(t, 1, dev.displays)

	p.SetLine(0, "5")
	rowH := int16(76 / Lines)
	minX, maxX, n := dev.lit(3*rowH, 4*rowH)
	require.NotZero(t, n, "input line is drawn on the bottom row")
	assert.Greater(t, minX, int16(284/2), "text is right-aligned")
	assert.Less(t, maxX, int16(284))

	_, _, top := dev.lit(0, 3*rowH)
	assert.Zero(t, top, "other rows stay blank")

	before := dev.displays
	p.SetLine(0, "5")
	assert.Equal(t, before, dev.displays, "unchanged line is not redrawn")
}

func TestPanelMessageCoversTopLine(t *testing.T) {
	dev := newPixels(284, 76)
	p := NewPanel(dev, nil)
	rowH := int16(76 / Lines)

	p.ShowMessage(Message{Text: "err", Severity: Error})
	assert.Equal(t, red, dev.buf[[2]int16{283, 0}])

	p.SetLine(3, "9")
	assert.Equal(t, "                9", p.Frame().Line(3))
	assert.Equal(t, red, dev.buf[[2]int16{283, 0}], "line stays hidden under the message")

	p.HideMessage()
	assert.Equal(t, black, dev.buf[[2]int16{283, 0}])
	_, _, n := dev.lit(0, rowH)
	assert.NotZero(t, n, "top line is restored")
}
