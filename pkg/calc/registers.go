package calc

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Register names one of the four memory registers.
type Register uint8

const (
	M1 Register = iota
	M2
	M3
	M4
	NumRegisters
)

func (r Register) String() string {
	if r < NumRegisters {
		return fmt.Sprintf("M%d", r+1)
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// Assignable reports whether r may appear on the left of "=".
func (r Register) Assignable() bool { return r == M3 || r == M4 }

// ParseRegister maps "M1".."M4", in any case, to a Register.
func ParseRegister(s string) (Register, bool) {
	if len(s) != 2 || (s[0] != 'M' && s[0] != 'm') || s[1] < '1' || s[1] > '4' {
		return 0, false
	}
	return Register(s[1] - '1'), true
}

// Registers holds M1..M4. The zero value has every register at 0.
type Registers struct {
	vals [NumRegisters]apd.Decimal
}

// Get returns a copy of register r.
func (rs *Registers) Get(r Register) *apd.Decimal {
	return new(apd.Decimal).Set(&rs.vals[r])
}

// Set copies d into register r.
func (rs *Registers) Set(r Register, d *apd.Decimal) {
	rs.vals[r].Set(d)
}

// push makes v the newest result: M2 takes the old M1.
func (rs *Registers) push(v *apd.Decimal) {
	rs.vals[M2].Set(&rs.vals[M1])
	rs.vals[M1].Set(v)
}

// Lines returns "M1 = value" style lines for every register.
func (rs *Registers) Lines() []string {
	out := make([]string, NumRegisters)
	for r := M1; r < NumRegisters; r++ {
		out[r] = r.String() + " = " + Format(&rs.vals[r])
	}
	return out
}

func (rs *Registers) String() string {
	return strings.Join(rs.Lines(), ", ")
}
