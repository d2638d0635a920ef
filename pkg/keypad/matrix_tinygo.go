//go:build tinygo

package keypad

import "machine"

// NewMatrix configures cols as outputs and rows as pulled-down inputs.
func NewMatrix(cols, rows []machine.Pin) *Matrix {
	m := &Matrix{
		Cols: make([]Pin, len(cols)),
		Rows: make([]Pin, len(rows)),
	}
	for i, p := range cols {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
		m.Cols[i] = p
	}
	for i, p := range rows {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
		m.Rows[i] = p
	}
	m.Discharge = discharger(rows)
	return m
}
