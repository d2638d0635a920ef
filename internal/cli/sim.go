package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"tinygo.org/x/tinyfs"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/app"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/display"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keymap"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keypad"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/usbkeypad"
)

// Sim is a calcpad running on a fake clock.
type Sim struct {
	Dev      *app.Device
	Frame    *display.Frame
	USB      *usbkeypad.LogPort
	Store    *storage.Manager
	settings config.Settings
	reg      *keymap.Registry
	scan     *keypad.Virtual
	now      uint32
}

// NewSim builds a simulator. Log output goes to logOut.
func NewSim(opts *RootOptions, logOut io.Writer) (*Sim, error) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	store, err := storage.New(tinyfs.NewMemoryDevice(256, 4096, 64), true, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	settings := config.Default()
	settings.History.Capacity = opts.Capacity
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s := &Sim{
		Frame:    &display.Frame{},
		USB:      &usbkeypad.LogPort{Log: log},
		Store:    store,
		settings: settings,
		reg:      keymap.Default(),
	}
	s.scan = keypad.NewVirtual(s.reg.Size())
	s.Dev = app.NewDevice(app.Parts{
		Settings: settings,
		Registry: s.reg,
		History:  store.Lines(settings.History.Path),
		Renderer: s.Frame,
		USB:      usbkeypad.New(func() usbkeypad.Port { return s.USB }, nil, log),
		Scanner:  s.scan,
		Clock:    func() uint32 { return s.now },
		Logger:   log,
	})
	return s, nil
}

// Apply runs one key token: a key name or symbol is tapped, "+NAME" presses,
// "-NAME" releases and "wait:DURATION" lets time pass.
func (s *Sim) Apply(token string) error {
	if d, ok := strings.CutPrefix(token, "wait:"); ok {
		dur, err := time.ParseDuration(d)
		if err != nil || dur < 0 {
			return fmt.Errorf("bad wait %q", d)
		}
		s.Wait(dur)
		return nil
	}

	if len(token) > 1 {
		switch token[0] {
		case '+':
			return s.set(token[1:], true)
		case '-':
			return s.set(token[1:], false)
		}
	}
	if err := s.set(token, true); err != nil {
		return err
	}
	return s.set(token, false)
}

func (s *Sim) set(name string, level bool) error {
	k := s.reg.ByName(name)
	if k == nil {
		return fmt.Errorf("unknown key %q", name)
	}
	s.scan.Set(k.Scancode, level)
	s.Dev.Scan()
	return nil
}

// Wait advances the clock by d, ticking the scheduler once per tick period.
func (s *Sim) Wait(d time.Duration) {
	tick := s.settings.Keypad.Tick.Std()
	for d > 0 {
		step := min(tick, d)
		s.now += uint32(step / time.Millisecond)
		s.Dev.Tick()
		d -= step
	}
}

// Render writes the screen.
func (s *Sim) Render(w io.Writer) {
	fmt.Fprint(w, s.Frame.String())
}
