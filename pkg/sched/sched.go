// Package sched implements a cooperative one-shot callback scheduler.
//
// Callbacks are never run from Schedule. They run synchronously from Tick,
// which the control loop calls at a fixed period (typically once a second).
// Nothing in this package starts goroutines or takes locks: every method must
// be called from the single control thread.
package sched

import (
	"errors"
	"log/slog"
	"math"
	"time"
)

// Clock returns a free-running millisecond counter. It is allowed to wrap.
type Clock func() uint32

// SystemClock returns a Clock counting milliseconds from the moment it was created.
func SystemClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start) / time.Millisecond)
	}
}

// Func is a deferred callback; arg is the value given to Schedule.
type Func func(arg any)

// Handle identifies one scheduled callback. The zero Handle is never live.
type Handle struct {
	slot uint16
	gen  uint32
}

// Valid reports whether h was ever returned by Schedule.
func (h Handle) Valid() bool { return h.gen != 0 }

const (
	// DefaultSlots is the initial arena size used when New is given zero.
	DefaultSlots = 4
	// MaxSlots bounds arena growth.
	MaxSlots = 1024
	// MaxDelay is the longest delay that still compares correctly across a
	// wrap of the millisecond clock.
	MaxDelay = time.Duration(math.MaxInt32) * time.Millisecond
)

var (
	ErrNilCallback = errors.New("sched: nil callback")
	ErrBadDelay    = errors.New("sched: delay out of range")
	ErrFull        = errors.New("sched: no free timer slot")
)

type entry struct {
	start uint32
	delay uint32
	fn    Func
	arg   any
	gen   uint32
	live  bool
	// armed during the Tick currently running; must wait for the next one.
	deferred bool
}

// Scheduler owns a fixed arena of timer slots. Each slot carries a generation
// counter that is bumped every time the slot is occupied, so a handle to a
// fired or cancelled timer can never match a later, unrelated one.
type Scheduler struct {
	clock   Clock
	slots   []entry
	live    int
	ticking bool
	log     *slog.Logger
}

// New creates a Scheduler with the given initial number of slots.
// A nil clock selects SystemClock; a nil logger selects slog.Default().
func New(slots int, clock Clock, log *slog.Logger) *Scheduler {
	if slots <= 0 {
		slots = DefaultSlots
	}
	if slots > MaxSlots {
		slots = MaxSlots
	}
	if clock == nil {
		clock = SystemClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		clock: clock,
		slots: make([]entry, slots),
		log:   log,
	}
}

// Schedule arranges for fn(arg) to run from the first Tick at which at least
// delay has elapsed. It never runs fn itself.
func (s *Scheduler) Schedule(delay time.Duration, fn Func, arg any) (Handle, error) {
	if fn == nil {
		return Handle{}, ErrNilCallback
	}
	if delay < 0 || delay > MaxDelay {
		return Handle{}, ErrBadDelay
	}

	i := s.freeSlot()
	if i < 0 {
		return Handle{}, ErrFull
	}

	e := &s.slots[i]
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	e.start = s.clock()
	e.delay = uint32(delay / time.Millisecond)
	e.fn = fn
	e.arg = arg
	e.live = true
	e.deferred = s.ticking
	s.live++

	return Handle{slot: uint16(i), gen: e.gen}, nil
}

// Cancel stops a pending callback. It returns true only if the callback was
// still pending; cancelling twice, or after it fired, returns false.
func (s *Scheduler) Cancel(h Handle) bool {
	if !h.Valid() || int(h.slot) >= len(s.slots) {
		return false
	}
	e := &s.slots[h.slot]
	if !e.live || e.gen != h.gen {
		return false
	}
	s.release(e)
	return true
}

// Tick fires every due callback exactly once, in slot order, and returns how
// many ran. A slot is freed before its callback runs, so callbacks may
// schedule and cancel freely; anything scheduled from inside a callback waits
// for a later Tick.
func (s *Scheduler) Tick() int {
	now := s.clock()
	fired := 0

	s.ticking = true
	for i := 0; i < len(s.slots); i++ {
		e := &s.slots[i]
		if !e.live || e.deferred {
			continue
		}
		// Signed difference keeps the comparison correct across clock wrap.
		if int32(now-e.start) < int32(e.delay) {
			continue
		}
		fn, arg := e.fn, e.arg
		s.release(e)
		fn(arg)
		fired++
	}
	s.ticking = false

	for i := range s.slots {
		s.slots[i].deferred = false
	}
	return fired
}

// Len returns the number of pending callbacks.
func (s *Scheduler) Len() int { return s.live }

// Cap returns the current arena size.
func (s *Scheduler) Cap() int { return len(s.slots) }

func (s *Scheduler) release(e *entry) {
	e.live = false
	e.deferred = false
	e.fn = nil
	e.arg = nil
	s.live--
}

func (s *Scheduler) freeSlot() int {
	for i := range s.slots {
		if !s.slots[i].live {
			return i
		}
	}

	n := len(s.slots)
	if n >= MaxSlots {
		s.log.Error("timer arena exhausted", "slots", n)
		return -1
	}
	grown := n * 2
	if grown > MaxSlots {
		grown = MaxSlots
	}
	s.slots = append(s.slots, make([]entry, grown-n)...)
	s.log.Warn("timer arena grown", "from", n, "to", grown)
	return n
}
