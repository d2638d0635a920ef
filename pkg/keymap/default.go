package keymap

// Default returns the registry for the 5x6 keypad matrix. Scancodes are
// row*Cols+col; positions 2, 9, 14, 15, 20 and 25 are not populated.
func Default() *Registry {
	r, err := NewRegistry(Rows*Cols, defaultKeys)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultKeys = []Key{
	{Scancode: 0, Code: KeyF17, Name: "SHIFT", Variant: ShiftLayer, Weight: 1},
	{Scancode: 1, Code: Key0, Name: "KP0", Symbol: "0"},
	{Scancode: 3, Code: KeyPeriod, Name: "PERIOD", Symbol: "."},
	{Scancode: 4, Code: KeyEnter, Name: "KPENTER", Symbol: SymEnter, Shifted: SymAssign},
	{Scancode: 5, Code: KeyF18, Name: "F18", Symbol: SymClear, Shifted: SymClearAll},

	{Scancode: 6, Code: Key1, Name: "KP1", Symbol: "1"},
	{Scancode: 7, Code: Key2, Name: "KP2", Symbol: "2"},
	{Scancode: 8, Code: Key3, Name: "KP3", Symbol: "3"},
	{Scancode: 10, Code: KeyF19, Name: "F19", Symbol: SymBackspace, Shifted: SymRecall},

	{Scancode: 11, Code: Key4, Name: "KP4", Symbol: "4"},
	{Scancode: 12, Code: Key5, Name: "KP5", Symbol: "5"},
	{Scancode: 13, Code: Key6, Name: "KP6", Symbol: "6"},

	{Scancode: 16, Code: Key7, Name: "KP7", Symbol: "7"},
	{Scancode: 17, Code: Key8, Name: "KP8", Symbol: "8"},
	{Scancode: 18, Code: Key9, Name: "KP9", Symbol: "9"},
	{Scancode: 19, Code: KeyAdd, Name: "KPADD", Symbol: "+"},

	{Scancode: 21, Code: KeyNumLock, Name: "NUMLOCK", Variant: Toggle, Flag: FlagNumLock},
	{Scancode: 22, Code: KeyDivide, Name: "KPDIVIDE", Symbol: "/"},
	{Scancode: 23, Code: KeyMultiply, Name: "KPMULTIPLY", Symbol: "*"},
	{Scancode: 24, Code: KeySubtract, Name: "KPSUBTRACT", Symbol: "-"},

	{Scancode: 26, Code: KeyF13, Name: "F13", Symbol: "M1"},
	{Scancode: 27, Code: KeyF14, Name: "F14", Symbol: "M2"},
	{Scancode: 28, Code: KeyF15, Name: "F15", Variant: LongPress, Symbol: "M3", Long: SymStore},
	{Scancode: 29, Code: KeyF16, Name: "F16", Variant: LongPress, Symbol: "M4", Long: SymStore},
}
