// Package keymap describes the physical keys of the keypad: their scancodes,
// HID usage codes, symbols and behaviour variants.
package keymap

import (
	"errors"
	"fmt"
	"strings"
)

// Variant selects how a key reacts to press and release.
type Variant uint8

const (
	// Simple keys emit one action on press.
	Simple Variant = iota
	// ShiftLayer keys change the active layer while held.
	ShiftLayer
	// Toggle keys flip a named boolean flag on release.
	Toggle
	// LongPress keys emit an extra action when held past the long-press delay.
	LongPress
)

func (v Variant) String() string {
	switch v {
	case Simple:
		return "simple"
	case ShiftLayer:
		return "shift"
	case Toggle:
		return "toggle"
	case LongPress:
		return "longpress"
	default:
		return fmt.Sprintf("variant(%d)", v)
	}
}

// Matrix geometry of the keypad.
const (
	Rows = 5
	Cols = 6
)

// FlagNumLock names the flag that switches between calculator and keypad mode.
const FlagNumLock = "NumLock"

// HID keyboard usage codes used by the keypad.
const (
	KeyNumLock  uint8 = 0x53
	KeyDivide   uint8 = 0x54
	KeyMultiply uint8 = 0x55
	KeySubtract uint8 = 0x56
	KeyAdd      uint8 = 0x57
	KeyEnter    uint8 = 0x58
	Key1        uint8 = 0x59
	Key2        uint8 = 0x5A
	Key3        uint8 = 0x5B
	Key4        uint8 = 0x5C
	Key5        uint8 = 0x5D
	Key6        uint8 = 0x5E
	Key7        uint8 = 0x5F
	Key8        uint8 = 0x60
	Key9        uint8 = 0x61
	Key0        uint8 = 0x62
	KeyPeriod   uint8 = 0x63
	KeyF13      uint8 = 0x68
	KeyF14      uint8 = 0x69
	KeyF15      uint8 = 0x6A
	KeyF16      uint8 = 0x6B
	KeyF17      uint8 = 0x6C
	KeyF18      uint8 = 0x6D
	KeyF19      uint8 = 0x6E
)

// Calculator symbols that are not literal input text.
const (
	SymEnter     = "ENTER"
	SymAssign    = "="
	SymClear     = "CLEAR"
	SymClearAll  = "CLEARALL"
	SymBackspace = "BACKSPACE"
	SymRecall    = "RECALL"
	SymStore     = "STORE"
)

// Key is one physical key.
type Key struct {
	Scancode int
	Code     uint8 // HID usage sent when the calculator is unlocked
	Name     string
	Variant  Variant
	Symbol   string // calculator symbol on layer 0
	Shifted  string // symbol on any shifted layer; empty means same as Symbol
	Weight   int    // ShiftLayer: amount added to the layer while held
	Long     string // LongPress: symbol emitted once the key is held
	Flag     string // Toggle: name of the flag flipped on release
}

// SymbolFor returns the symbol the key produces on the given layer.
func (k *Key) SymbolFor(layer int) string {
	if layer > 0 && k.Shifted != "" {
		return k.Shifted
	}
	return k.Symbol
}

var (
	ErrDuplicate = errors.New("keymap: duplicate scancode")
	ErrRange     = errors.New("keymap: scancode out of range")
	ErrInvalid   = errors.New("keymap: invalid key")
)

// Registry is the immutable mapping from scancode to key. Unmapped scancodes
// have no entry.
type Registry struct {
	keys []*Key
	all  []Key
}

// NewRegistry validates keys and builds a registry covering scancodes 0..size-1.
func NewRegistry(size int, keys []Key) (*Registry, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrRange, size)
	}
	r := &Registry{
		keys: make([]*Key, size),
		all:  make([]Key, len(keys)),
	}
	copy(r.all, keys)

	for i := range r.all {
		k := &r.all[i]
		if k.Scancode < 0 || k.Scancode >= size {
			return nil, fmt.Errorf("%w: %s at %d", ErrRange, k.Name, k.Scancode)
		}
		if r.keys[k.Scancode] != nil {
			return nil, fmt.Errorf("%w: %d (%s, %s)", ErrDuplicate, k.Scancode, r.keys[k.Scancode].Name, k.Name)
		}
		if err := validate(k); err != nil {
			return nil, err
		}
		r.keys[k.Scancode] = k
	}
	return r, nil
}

func validate(k *Key) error {
	if k.Name == "" {
		return fmt.Errorf("%w: scancode %d has no name", ErrInvalid, k.Scancode)
	}
	switch k.Variant {
	case Simple:
	case ShiftLayer:
		if k.Weight == 0 {
			return fmt.Errorf("%w: %s: shift key needs a weight", ErrInvalid, k.Name)
		}
	case Toggle:
		if k.Flag == "" {
			return fmt.Errorf("%w: %s: toggle key needs a flag", ErrInvalid, k.Name)
		}
	case LongPress:
		if k.Long == "" {
			return fmt.Errorf("%w: %s: long-press key needs a long symbol", ErrInvalid, k.Name)
		}
	default:
		return fmt.Errorf("%w: %s: %v", ErrInvalid, k.Name, k.Variant)
	}
	return nil
}

// Lookup returns the key at scancode sc, or nil if it is unmapped or out of range.
// The key is shared with the registry and must not be modified.
func (r *Registry) Lookup(sc int) *Key {
	if sc < 0 || sc >= len(r.keys) {
		return nil
	}
	return r.keys[sc]
}

// ByName finds a key by name or layer-0 symbol, ignoring case. Like Lookup, the
// result is shared and read-only.
func (r *Registry) ByName(name string) *Key {
	for i := range r.all {
		k := &r.all[i]
		if strings.EqualFold(k.Name, name) || (k.Symbol != "" && strings.EqualFold(k.Symbol, name)) {
			return k
		}
	}
	return nil
}

// Size returns the scancode range of the registry.
func (r *Registry) Size() int { return len(r.keys) }

// Keys returns copies of the mapped keys in registration order.
func (r *Registry) Keys() []Key {
	out := make([]Key, len(r.all))
	copy(out, r.all)
	return out
}
