// Package keypad turns raw key levels into calculator actions or raw HID
// key codes, depending on the NumLock state.
package keypad

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keymap"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/sched"
)

// Kind is the type of a calculator action.
type Kind uint8

const (
	Press Kind = iota
	LongPress
	Release
	Toggle
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case LongPress:
		return "longpress"
	case Release:
		return "release"
	case Toggle:
		return "toggle"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Action is delivered to the Handler while the keypad is locked to the
// calculator, and for every NumLock transition.
type Action struct {
	Kind   Kind
	Key    *keymap.Key
	Symbol string // symbol for the layer active at press time
	Layer  int
	Value  bool // Toggle: the new flag value
}

// Handler consumes calculator actions.
type Handler interface {
	HandleAction(Action)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Action)

func (f HandlerFunc) HandleAction(a Action) { f(a) }

// USB is the host keyboard interface used while unlocked.
type USB interface {
	// Init brings the HID interface up. It must be idempotent.
	Init()
	Connected() bool
	// Send reports code as the single pressed key; 0 reports no key.
	Send(code uint8)
}

// Scanner reports the current level of every scancode.
type Scanner interface {
	Scan(visit func(sc int, level bool)) error
}

// Lock is the routing state of the keypad.
type Lock uint8

const (
	// Locked routes keys to the calculator.
	Locked Lock = iota
	// Unlocked forwards keys to the host.
	Unlocked
)

func (l Lock) String() string {
	if l == Locked {
		return "locked"
	}
	return "unlocked"
}

// DefaultLongPress is the hold time before a long-press fires.
const DefaultLongPress = time.Second

// Options configures a Machine. Zero values select defaults.
type Options struct {
	Handler     Handler
	USB         USB
	Scanner     Scanner
	LongPress   time.Duration
	StartLocked bool
	Logger      *slog.Logger
}

type longPress struct {
	handle sched.Handle
	seq    uint32
	active bool
}

type longArg struct {
	sc  int
	seq uint32
}

// Machine is the key event state machine. It is driven from the control
// loop only and is not safe for concurrent use.
type Machine struct {
	reg     *keymap.Registry
	sched   *sched.Scheduler
	handler Handler
	usb     USB
	scanner Scanner
	hold    time.Duration
	log     *slog.Logger

	state   []bool
	applied []int
	long    []longPress
	layer   int
	flags   map[string]bool
}

// NewMachine creates a Machine for every scancode in reg.
func NewMachine(reg *keymap.Registry, s *sched.Scheduler, opts Options) *Machine {
	if opts.LongPress <= 0 {
		opts.LongPress = DefaultLongPress
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	n := reg.Size()
	return &Machine{
		reg:     reg,
		sched:   s,
		handler: opts.Handler,
		usb:     opts.USB,
		scanner: opts.Scanner,
		hold:    opts.LongPress,
		log:     opts.Logger,
		state:   make([]bool, n),
		applied: make([]int, n),
		long:    make([]longPress, n),
		flags:   map[string]bool{keymap.FlagNumLock: opts.StartLocked},
	}
}

// Poll scans the matrix once and processes every level change.
func (m *Machine) Poll() error {
	if m.scanner == nil {
		return ErrNoMatrix
	}
	if err := m.scanner.Scan(m.Process); err != nil {
		return fmt.Errorf("%w: %w", ErrScan, err)
	}
	return nil
}

// Process feeds one scancode level. Only changes from the last seen level act.
func (m *Machine) Process(sc int, level bool) {
	if sc < 0 || sc >= len(m.state) || m.state[sc] == level {
		return
	}
	m.state[sc] = level

	k := m.reg.Lookup(sc)
	if k == nil {
		return
	}
	if level {
		m.press(k)
	} else {
		m.release(k)
	}
}

// Layer returns the active shift layer.
func (m *Machine) Layer() int { return m.layer }

// Lock returns the routing state.
func (m *Machine) Lock() Lock {
	if m.flags[keymap.FlagNumLock] {
		return Locked
	}
	return Unlocked
}

func isNumLock(k *keymap.Key) bool {
	return k.Variant == keymap.Toggle && k.Flag == keymap.FlagNumLock
}

func (m *Machine) press(k *keymap.Key) {
	if isNumLock(k) {
		return
	}
	if m.Lock() == Unlocked {
		m.send(k.Code)
		return
	}

	switch k.Variant {
	case keymap.ShiftLayer:
		m.applied[k.Scancode] = k.Weight
		m.layer += k.Weight
	case keymap.Simple:
		m.emit(Action{Kind: Press, Key: k, Symbol: k.SymbolFor(m.layer), Layer: m.layer})
	case keymap.LongPress:
		m.emit(Action{Kind: Press, Key: k, Symbol: k.SymbolFor(m.layer), Layer: m.layer})
		m.armLong(k)
	case keymap.Toggle:
		// flips on release
	}
}

func (m *Machine) release(k *keymap.Key) {
	sc := k.Scancode
	if w := m.applied[sc]; w != 0 {
		m.layer -= w
		m.applied[sc] = 0
	}

	lp := &m.long[sc]
	held := lp.active
	if held {
		m.sched.Cancel(lp.handle)
		lp.active = false
	}

	if isNumLock(k) {
		m.toggle(k)
		return
	}
	// A key armed while locked completes its press/release pair even if
	// NumLock changed in between; the host never saw it go down.
	if held {
		m.emit(Action{Kind: Release, Key: k, Symbol: k.SymbolFor(m.layer), Layer: m.layer})
		return
	}
	if m.Lock() == Unlocked {
		m.send(0)
		return
	}

	if k.Variant == keymap.Toggle {
		m.toggle(k)
	}
}

func (m *Machine) armLong(k *keymap.Key) {
	lp := &m.long[k.Scancode]
	if lp.active {
		m.sched.Cancel(lp.handle)
	}
	lp.seq++
	lp.active = true

	h, err := m.sched.Schedule(m.hold, m.longFired, longArg{sc: k.Scancode, seq: lp.seq})
	if err != nil {
		m.log.Warn("long-press check not scheduled", "key", k.Name, "err", err)
		return
	}
	lp.handle = h
}

func (m *Machine) longFired(arg any) {
	a, ok := arg.(longArg)
	if !ok || a.sc < 0 || a.sc >= len(m.long) {
		return
	}
	lp := &m.long[a.sc]
	if !lp.active || lp.seq != a.seq || !m.state[a.sc] || m.Lock() != Locked {
		return
	}
	k := m.reg.Lookup(a.sc)
	if k == nil {
		return
	}
	m.emit(Action{Kind: LongPress, Key: k, Symbol: k.Long, Layer: m.layer})
}

func (m *Machine) toggle(k *keymap.Key) {
	v := !m.flags[k.Flag]
	m.flags[k.Flag] = v
	if k.Flag == keymap.FlagNumLock && m.usb != nil {
		m.usb.Init()
	}
	m.log.Debug("flag toggled", "flag", k.Flag, "value", v)
	m.emit(Action{Kind: Toggle, Key: k, Symbol: k.Flag, Layer: m.layer, Value: v})
}

func (m *Machine) send(code uint8) {
	if m.usb == nil {
		return
	}
	m.usb.Send(code)
}

func (m *Machine) emit(a Action) {
	if m.handler == nil {
		return
	}
	m.handler.HandleAction(a)
}
