//go:build tinygo

package usbkeypad

import (
	"machine"
	tgk "machine/usb/hid/keyboard"
)

// hidPort drives the TinyGo HID keyboard. Usage codes are sent as raw
// keycodes (0xF000 | usage) so no layout translation applies.
type hidPort struct {
	kb *tgk.Keyboard
}

func (p hidPort) Down(code uint8) error {
	return p.kb.Down(tgk.Keycode(0xF000 | uint16(code)))
}

func (p hidPort) Release() error { return p.kb.Release() }

func (p hidPort) NumLockLed() bool { return p.kb.NumLockLed() }

// OpenHID registers the HID keyboard with the USB stack.
func OpenHID() Port {
	return hidPort{kb: tgk.Port()}
}

// USBConnected reports whether the host has configured the USB endpoints.
func USBConnected() bool {
	return machine.USBDev.InitEndpointComplete
}

// NewHID returns a Keypad on the TinyGo USB HID keyboard.
func NewHID() *Keypad {
	return New(OpenHID, USBConnected, nil)
}
