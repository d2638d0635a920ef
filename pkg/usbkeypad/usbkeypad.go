// Package usbkeypad forwards raw key codes to the host as a USB HID keyboard
// while the calculator is unlocked. The HID interface is brought up lazily on
// the first NumLock transition; until the host has configured it, reports are
// dropped.
package usbkeypad

import "log/slog"

// Port is a HID keyboard endpoint.
type Port interface {
	// Down reports code as pressed.
	Down(code uint8) error
	// Release reports no key pressed.
	Release() error
	// NumLockLed reports the host's NumLock LED state.
	NumLockLed() bool
}

// Keypad implements the keypad's USB contract on top of a Port.
type Keypad struct {
	open      func() Port
	connected func() bool
	port      Port
	sent      int
	dropped   int
	numLock   bool
	log       *slog.Logger
}

// New returns a Keypad that calls open once, on the first Init. connected
// reports whether the host has finished enumeration; nil means always.
func New(open func() Port, connected func() bool, log *slog.Logger) *Keypad {
	if log == nil {
		log = slog.Default()
	}
	return &Keypad{
		open:      open,
		connected: connected,
		log:       log,
	}
}

// Init brings the HID interface up. Later calls do nothing.
func (k *Keypad) Init() {
	if k.port != nil || k.open == nil {
		return
	}
	k.port = k.open()
	k.log.Info("usb keyboard initialized")
}

// Connected reports whether reports can be delivered.
func (k *Keypad) Connected() bool {
	if k.port == nil {
		return false
	}
	return k.connected == nil || k.connected()
}

// Send reports code as the only pressed key, or no key for 0. Reports that
// cannot be delivered are dropped.
func (k *Keypad) Send(code uint8) {
	if !k.Connected() {
		k.dropped++
		k.log.Debug("usb report dropped", "code", code, "dropped", k.dropped)
		return
	}

	var err error
	if code == 0 {
		err = k.port.Release()
	} else {
		err = k.port.Down(code)
	}
	if err != nil {
		k.dropped++
		k.log.Debug("usb report failed", "code", code, "err", err, "dropped", k.dropped)
		return
	}
	k.sent++
	k.watchNumLock()
}

// watchNumLock logs changes of the host's NumLock LED.
func (k *Keypad) watchNumLock() {
	if led := k.port.NumLockLed(); led != k.numLock {
		k.numLock = led
		k.log.Info("host numlock", "on", led, "sent", k.sent)
	}
}

// LogPort is a Port that only logs, for running without USB hardware.
type LogPort struct {
	Log   *slog.Logger
	Codes []uint8
}

func (p *LogPort) Down(code uint8) error {
	p.Codes = append(p.Codes, code)
	if p.Log != nil {
		p.Log.Info("usb key down", "code", code)
	}
	return nil
}

func (p *LogPort) Release() error {
	p.Codes = append(p.Codes, 0)
	if p.Log != nil {
		p.Log.Info("usb key release")
	}
	return nil
}

func (p *LogPort) NumLockLed() bool { return false }
