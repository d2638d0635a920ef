package keypad

import "errors"

var (
	ErrNoMatrix = errors.New("keypad: no key matrix configured")
	ErrScan     = errors.New("keypad: matrix scan failed")
)

// Pin is a single GPIO line of the key matrix.
type Pin interface {
	High()
	Low()
	Get() bool
}

// Matrix scans a column-driven key matrix. Scancodes are row*len(Cols)+col.
type Matrix struct {
	Cols []Pin
	Rows []Pin
	// Discharge, when set, is called before every row read. Some chips need
	// the input actively pulled down before its level can be trusted.
	Discharge func(row int)
}

// Scan drives each column high in turn and reports the level of every row.
func (m *Matrix) Scan(visit func(sc int, level bool)) error {
	if len(m.Cols) == 0 || len(m.Rows) == 0 {
		return ErrNoMatrix
	}
	cols := len(m.Cols)
	for c, col := range m.Cols {
		col.High()
		for r, row := range m.Rows {
			if m.Discharge != nil {
				m.Discharge(r)
			}
			visit(r*cols+c, row.Get())
		}
		col.Low()
	}
	return nil
}

// Virtual is a Scanner backed by memory, for tests and the host simulator.
type Virtual struct {
	levels []bool
}

// NewVirtual creates a virtual matrix with size scancodes, all released.
func NewVirtual(size int) *Virtual {
	return &Virtual{levels: make([]bool, size)}
}

// Set changes the level of one scancode; out of range values are ignored.
func (v *Virtual) Set(sc int, level bool) {
	if sc >= 0 && sc < len(v.levels) {
		v.levels[sc] = level
	}
}

func (v *Virtual) Scan(visit func(sc int, level bool)) error {
	for sc, level := range v.levels {
		visit(sc, level)
	}
	return nil
}
