//go:build tinygo

package display

import (
	"log/slog"
	"machine"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/st7789"
)

// Wiring of the 2.25" 76x284 ST7789 panel.
const (
	sckPin = machine.GPIO2
	sdoPin = machine.GPIO3
	csPin  = machine.GPIO5
	dcPin  = machine.GPIO6
	rstPin = machine.GPIO7
	blPin  = machine.GPIO8
)

// NewST7789 configures SPI0 and the panel in landscape orientation and
// returns a Panel drawing on it. width and height are the landscape size.
func NewST7789(width, height int16, log *slog.Logger) (*Panel, error) {
	spi := machine.SPI0
	if err := spi.Configure(machine.SPIConfig{
		Frequency: 62_500_000,
		SCK:       sckPin,
		SDO:       sdoPin,
		Mode:      0,
	}); err != nil {
		return nil, err
	}

	dev := st7789.New(spi, rstPin, dcPin, csPin, blPin)
	dev.Configure(st7789.Config{
		Width:        height,
		Height:       width,
		Rotation:     drivers.Rotation90,
		ColumnOffset: 82,
		RowOffset:    18,
	})
	dev.EnableBacklight(true)

	return NewPanel(&dev, log), nil
}
