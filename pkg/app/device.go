package app

import (
	"log/slog"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/history"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keymap"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keypad"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/sched"
)

// Parts are the board-specific pieces a Device is built from.
type Parts struct {
	Settings config.Settings
	Registry *keymap.Registry // nil selects keymap.Default
	History  history.Store
	Renderer Renderer
	USB      keypad.USB
	Scanner  keypad.Scanner
	Clock    sched.Clock // nil selects sched.SystemClock
	Logger   *slog.Logger
}

// Device ties the keypad, scheduler and calculator together. Both the
// firmware and the simulator drive one.
type Device struct {
	App   *App
	Keys  *keypad.Machine
	Sched *sched.Scheduler
	log   *slog.Logger
}

// NewDevice assembles a Device and draws the first screen.
func NewDevice(p Parts) *Device {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Registry == nil {
		p.Registry = keymap.Default()
	}
	if p.Clock == nil {
		p.Clock = sched.SystemClock()
	}

	s := sched.New(p.Settings.Scheduler.Slots, p.Clock, p.Logger)
	hist := history.Open(p.Settings.History.Capacity, p.History, p.Logger)
	a := New(p.Registry, hist, s, p.Renderer, p.Settings, p.Logger)
	keys := keypad.NewMachine(p.Registry, s, keypad.Options{
		Handler:     a,
		USB:         p.USB,
		Scanner:     p.Scanner,
		LongPress:   p.Settings.Keypad.LongPress.Std(),
		StartLocked: p.Settings.Keypad.StartLocked,
		Logger:      p.Logger,
	})

	return &Device{App: a, Keys: keys, Sched: s, log: p.Logger}
}

// Scan polls the matrix once. Scan faults are logged and otherwise ignored.
func (d *Device) Scan() {
	if err := d.Keys.Poll(); err != nil {
		d.log.Warn("keypad scan", "err", err)
	}
}

// Tick runs due timers.
func (d *Device) Tick() int {
	return d.Sched.Tick()
}
