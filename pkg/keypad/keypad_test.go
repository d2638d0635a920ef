package keypad

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keymap"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/sched"
)

const (
	scShift   = 0
	scEnter   = 4
	scOne     = 6
	scNumLock = 21
	scM3      = 28
)

type fakeUSB struct {
	inits     int
	connected bool
	sent      []uint8
}

func (u *fakeUSB) Init()           { u.inits++; u.connected = true }
func (u *fakeUSB) Connected() bool { return u.connected }
func (u *fakeUSB) Send(code uint8) { u.sent = append(u.sent, code) }

type rig struct {
	m       *Machine
	s       *sched.Scheduler
	usb     *fakeUSB
	scan    *Virtual
	actions []Action
	now     uint32
}

func newRig(t *testing.T, locked bool) *rig {
	t.Helper()
	r := &rig{usb: &fakeUSB{}}
	reg := keymap.Default()
	r.s = sched.New(4, func() uint32 { return r.now }, nil)
	r.scan = NewVirtual(reg.Size())
	r.m = NewMachine(reg, r.s, Options{
		Handler:     HandlerFunc(func(a Action) { r.actions = append(r.actions, a) }),
		USB:         r.usb,
		Scanner:     r.scan,
		LongPress:   time.Second,
		StartLocked: locked,
	})
	return r
}

func (r *rig) set(t *testing.T, sc int, level bool) {
	t.Helper()
	r.scan.Set(sc, level)
	require.NoError(t, r.m.Poll())
}

func (r *rig) tap(t *testing.T, sc int) {
	r.set(t, sc, true)
	r.set(t, sc, false)
}

func (r *rig) wait(d time.Duration) {
	for step := time.Duration(0); step < d; step += time.Second {
		r.now += uint32(time.Second / time.Millisecond)
		r.s.Tick()
	}
}

func kinds(actions []Action) []Kind {
	out := make([]Kind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func TestSimplePressEmitsOnce(t *testing.T) {
	r := newRig(t, true)

	r.set(t, scOne, true)
	r.set(t, scOne, true)
	r.set(t, scOne, false)

	require.Len(t, r.actions, 1)
	assert.Equal(t, Press, r.actions[0].Kind)
	assert.Equal(t, "1", r.actions[0].Symbol)
	assert.Empty(t, r.usb.sent)
}

func TestShiftLayerSelectsShiftedSymbol(t *testing.T) {
	r := newRig(t, true)

	r.set(t, scShift, true)
	assert.Equal(t, 1, r.m.Layer())
	r.tap(t, scEnter)
	r.set(t, scShift, false)
	assert.Equal(t, 0, r.m.Layer())
	r.tap(t, scEnter)

	require.Len(t, r.actions, 2)
	assert.Equal(t, keymap.SymAssign, r.actions[0].Symbol)
	assert.Equal(t, 1, r.actions[0].Layer)
	assert.Equal(t, keymap.SymEnter, r.actions[1].Symbol)
}

func TestShiftReleasedAfterUnlockRestoresLayer(t *testing.T) {
	r := newRig(t, true)

	r.set(t, scShift, true)
	r.tap(t, scNumLock)
	r.set(t, scShift, false)

	assert.Equal(t, 0, r.m.Layer())
}

func TestLongPressFires(t *testing.T) {
	r := newRig(t, true)

	r.set(t, scM3, true)
	r.wait(2 * time.Second)
	r.set(t, scM3, false)

	assert.Equal(t, []Kind{Press, LongPress, Release}, kinds(r.actions))
	assert.Equal(t, "M3", r.actions[0].Symbol)
	assert.Equal(t, keymap.SymStore, r.actions[1].Symbol)
}

func TestLongPressReleasedAfterUnlock(t *testing.T) {
	r := newRig(t, true)

	r.set(t, scM3, true)
	r.tap(t, scNumLock)
	require.Equal(t, Unlocked, r.m.Lock())
	r.wait(2 * time.Second)
	r.set(t, scM3, false)

	assert.Equal(t, []Kind{Press, Toggle, Release}, kinds(r.actions))
	assert.Equal(t, "M3", r.actions[2].Symbol)
	assert.Empty(t, r.usb.sent, "host never saw the key go down")
}

func TestShortPressNeverFiresLongPress(t *testing.T) {
	r := newRig(t, true)

	r.set(t, scM3, true)
	r.set(t, scM3, false)
	r.wait(3 * time.Second)

	assert.Equal(t, []Kind{Press, Release}, kinds(r.actions))
	assert.Equal(t, 0, r.s.Len())
}

func TestStaleLongPressCheckIgnored(t *testing.T) {
	r := newRig(t, true)

	r.set(t, scM3, true)
	r.set(t, scM3, false)
	r.set(t, scM3, true)
	r.wait(2 * time.Second)
	r.set(t, scM3, false)

	assert.Equal(t, []Kind{Press, Release, Press, LongPress, Release}, kinds(r.actions))
}

func TestUnlockedForwardsRawCodes(t *testing.T) {
	r := newRig(t, false)
	assert.Equal(t, Unlocked, r.m.Lock())

	r.tap(t, scOne)
	r.set(t, scM3, true)
	r.wait(2 * time.Second)
	r.set(t, scM3, false)

	assert.Empty(t, r.actions)
	assert.Equal(t, []uint8{keymap.Key1, 0, keymap.KeyF15, 0}, r.usb.sent)
}

func TestNumLockToggles(t *testing.T) {
	r := newRig(t, true)

	r.set(t, scNumLock, true)
	assert.Empty(t, r.actions, "numlock acts on release")
	r.set(t, scNumLock, false)

	assert.Equal(t, Unlocked, r.m.Lock())
	require.Len(t, r.actions, 1)
	assert.Equal(t, Toggle, r.actions[0].Kind)
	assert.False(t, r.actions[0].Value)
	assert.Equal(t, 1, r.usb.inits)
	assert.Empty(t, r.usb.sent, "numlock is never forwarded")

	r.tap(t, scNumLock)
	assert.Equal(t, Locked, r.m.Lock())
	assert.Equal(t, 2, r.usb.inits)
	assert.Empty(t, r.usb.sent)
}

func TestUnmappedScancodesIgnored(t *testing.T) {
	r := newRig(t, true)

	r.m.Process(2, true)
	r.m.Process(2, false)
	r.m.Process(-1, true)
	r.m.Process(99, true)

	assert.Empty(t, r.actions)
	assert.Empty(t, r.usb.sent)
}

func TestPollWithoutScanner(t *testing.T) {
	m := NewMachine(keymap.Default(), sched.New(1, func() uint32 { return 0 }, nil), Options{})
	assert.ErrorIs(t, m.Poll(), ErrNoMatrix)
}

type brokenScanner struct{}

func (brokenScanner) Scan(func(int, bool)) error { return errors.New("bus fault") }

func TestPollWrapsScanFault(t *testing.T) {
	m := NewMachine(keymap.Default(), sched.New(1, func() uint32 { return 0 }, nil), Options{Scanner: brokenScanner{}})
	err := m.Poll()
	assert.ErrorIs(t, err, ErrScan)
	assert.Contains(t, err.Error(), "bus fault")
}

type fakePin struct {
	high  bool
	level func() bool
}

func (p *fakePin) High()     { p.high = true }
func (p *fakePin) Low()      { p.high = false }
func (p *fakePin) Get() bool { return p.level() }

func TestMatrixScanOrder(t *testing.T) {
	var events []string
	cols := []*fakePin{{}, {}, {}}
	pressedCol := 2
	rows := []*fakePin{{}, {}}
	for i, r := range rows {
		level := func() bool { return i == 1 && cols[pressedCol].high }
		r.level = func() bool {
			events = append(events, fmt.Sprintf("read%d", i))
			return level()
		}
	}

	m := &Matrix{}
	for _, c := range cols {
		m.Cols = append(m.Cols, c)
	}
	for _, r := range rows {
		m.Rows = append(m.Rows, r)
	}
	m.Discharge = func(row int) { events = append(events, fmt.Sprintf("cal%d", row)) }

	var order []int
	var pressed []int
	require.NoError(t, m.Scan(func(sc int, level bool) {
		order = append(order, sc)
		if level {
			pressed = append(pressed, sc)
		}
	}))

	assert.Equal(t, []int{0, 3, 1, 4, 2, 5}, order)
	assert.Equal(t, []int{5}, pressed)
	for c := range cols {
		assert.Equal(t, []string{"cal0", "read0", "cal1", "read1"}, events[c*4:c*4+4], "column %d", c)
	}
	assert.Len(t, events, 12, "rows reading low are calibrated too")
	for _, c := range cols {
		assert.False(t, c.high, "columns are left low")
	}
}

func TestEmptyMatrix(t *testing.T) {
	m := &Matrix{}
	assert.ErrorIs(t, m.Scan(func(int, bool) {}), ErrNoMatrix)
}
