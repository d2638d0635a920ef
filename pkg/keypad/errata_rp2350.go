//go:build tinygo && rp2350

package keypad

import "machine"

// RP2350-E9: an input with the internal pull-down can latch high after
// being driven. Briefly driving it low clears the latch.
func discharger(rows []machine.Pin) func(row int) {
	return func(row int) {
		p := rows[row]
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
		p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	}
}
