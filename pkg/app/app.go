// Package app is the calculator application: it turns keypad actions into
// edits of the input line, evaluations, history updates and screen output.
package app

import (
	"log/slog"
	"strings"
	"time"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/calc"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/display"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/history"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keymap"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keypad"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/sched"
)

// Renderer shows the screen content.
type Renderer interface {
	SetLine(i int, text string)
	ShowMessage(m display.Message)
	HideMessage()
}

type handler func(a *App, act keypad.Action)

// symbolHandlers maps calculator symbols to their behaviour. Symbols not
// listed are inserted into the input line as text.
var symbolHandlers = map[string]handler{
	keymap.SymEnter:     (*App).enter,
	keymap.SymClear:     (*App).clear,
	keymap.SymClearAll:  (*App).clearAll,
	keymap.SymBackspace: (*App).backspace,
	keymap.SymRecall:    (*App).recall,
	keymap.SymStore:     (*App).store,
}

func resolve(symbol string) handler {
	if h, ok := symbolHandlers[symbol]; ok {
		return h
	}
	return (*App).insert
}

// bindings holds the handlers of one key, resolved when the App is built.
type bindings struct {
	press   handler
	shifted handler
	long    handler
}

// App owns the calculator state. It runs on the control loop only.
type App struct {
	engine   *calc.Engine
	history  *history.Log
	sched    *sched.Scheduler
	render   Renderer
	settings config.Settings
	log      *slog.Logger

	line    calc.InputLine
	keys    []bindings
	last    string
	hideMsg sched.Handle
	flush   sched.Handle

	// inserted records whether a key's last press added its symbol to the line
	inserted []bool
}

// New creates the application and draws the initial screen.
func New(reg *keymap.Registry, hist *history.Log, s *sched.Scheduler, r Renderer, settings config.Settings, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		engine:   calc.NewEngine(hist, log),
		history:  hist,
		sched:    s,
		render:   r,
		settings: settings,
		log:      log,
		keys:     make([]bindings, reg.Size()),
		inserted: make([]bool, reg.Size()),
	}

	for _, k := range reg.Keys() {
		b := &a.keys[k.Scancode]
		b.press = resolve(k.Symbol)
		b.shifted = b.press
		if k.Shifted != "" {
			b.shifted = resolve(k.Shifted)
		}
		if k.Long != "" {
			b.long = resolve(k.Long)
		}
	}

	a.redraw()
	return a
}

// Line returns the current input text.
func (a *App) Line() string { return a.line.Text() }

// HandleAction implements keypad.Handler.
func (a *App) HandleAction(act keypad.Action) {
	if act.Key == nil {
		return
	}
	switch act.Kind {
	case keypad.Press:
		b := a.binding(act.Key)
		if b == nil {
			return
		}
		h := b.press
		if act.Layer > 0 {
			h = b.shifted
		}
		if h != nil {
			h(a, act)
		}
	case keypad.LongPress:
		if b := a.binding(act.Key); b != nil && b.long != nil {
			b.long(a, act)
		}
	case keypad.Toggle:
		a.toggled(act)
	case keypad.Release:
		return
	}
	a.redraw()
}

func (a *App) binding(k *keymap.Key) *bindings {
	if k.Scancode < 0 || k.Scancode >= len(a.keys) {
		return nil
	}
	return &a.keys[k.Scancode]
}

func (a *App) insert(act keypad.Action) {
	ok := a.line.Insert(act.Symbol)
	if !ok {
		a.log.Debug("input line full", "symbol", act.Symbol)
	}
	if sc := act.Key.Scancode; sc >= 0 && sc < len(a.inserted) {
		a.inserted[sc] = ok
	}
}

func (a *App) enter(keypad.Action) {
	if strings.TrimSpace(a.line.Text()) == "" {
		return
	}
	text := a.line.Text()
	if _, err := a.engine.Submit(&a.line); err != nil {
		a.showError(calc.Short(err))
		return
	}
	a.last = text
	a.clearMessage()
	a.scheduleFlush()
}

func (a *App) clear(keypad.Action) {
	a.line.Clear()
	a.clearMessage()
}

func (a *App) clearAll(act keypad.Action) {
	a.clear(act)
	a.sched.Cancel(a.flush)
	if err := a.history.Clear(); err != nil {
		a.log.Warn("clear history", "err", err)
	}
}

func (a *App) backspace(keypad.Action) {
	a.line.Backspace()
}

func (a *App) recall(keypad.Action) {
	if a.last != "" {
		a.line.Set(a.last)
	}
}

// store copies M1 into the register of the held key. If the press inserted
// the key's name, it is taken back out.
func (a *App) store(act keypad.Action) {
	dst, ok := calc.ParseRegister(act.Key.Symbol)
	if !ok || !dst.Assignable() {
		return
	}
	if err := a.engine.Store(dst); err != nil {
		a.showError(calc.Short(err))
		return
	}
	if sc := act.Key.Scancode; sc >= 0 && sc < len(a.inserted) && a.inserted[sc] {
		a.inserted[sc] = false
		a.line.TrimSuffix(act.Key.Symbol)
	}
	a.showInfo("stored")
}

func (a *App) toggled(act keypad.Action) {
	if act.Key.Flag != keymap.FlagNumLock {
		return
	}
	if act.Value {
		a.showInfo("calc")
	} else {
		a.showInfo("keypad")
	}
}

func (a *App) showInfo(text string) {
	a.showMessage(display.Message{Text: text, Severity: display.Info}, a.settings.Display.MessageTimeout.Std())
}

func (a *App) showError(text string) {
	a.showMessage(display.Message{Text: text, Severity: display.Error}, a.settings.Display.ErrorTimeout.Std())
}

// showMessage displays m until timeout; a newer message restarts the timer.
func (a *App) showMessage(m display.Message, timeout time.Duration) {
	a.sched.Cancel(a.hideMsg)
	a.render.ShowMessage(m)

	h, err := a.sched.Schedule(timeout, func(any) {
		a.hideMsg = sched.Handle{}
		a.render.HideMessage()
	}, nil)
	if err != nil {
		a.log.Warn("message timer", "err", err)
		return
	}
	a.hideMsg = h
}

func (a *App) clearMessage() {
	if a.sched.Cancel(a.hideMsg) {
		a.render.HideMessage()
	}
	a.hideMsg = sched.Handle{}
}

// scheduleFlush defers the history write so a burst of results costs a
// single flash write.
func (a *App) scheduleFlush() {
	a.sched.Cancel(a.flush)
	h, err := a.sched.Schedule(a.settings.History.FlushDelay.Std(), func(any) {
		a.flush = sched.Handle{}
		if err := a.SaveHistory(); err != nil {
			a.log.Warn("history flush", "err", err)
		}
	}, nil)
	if err != nil {
		a.log.Warn("history flush timer", "err", err)
		return
	}
	a.flush = h
}

// redraw updates the input line and the three newest history entries.
func (a *App) redraw() {
	a.render.SetLine(0, a.line.Text())
	for i, entry := range a.history.Newest(display.Lines - 1) {
		a.render.SetLine(i+1, entry)
	}
}

// History returns the non-empty entries, oldest first.
func (a *App) History() []string {
	var out []string
	for _, e := range a.history.Entries() {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// ClearHistory empties the history and deletes its file.
func (a *App) ClearHistory() error {
	a.sched.Cancel(a.flush)
	err := a.history.Clear()
	a.redraw()
	return err
}

// SaveHistory writes pending history now.
func (a *App) SaveHistory() error {
	return a.history.Save()
}

// Registers returns "M1 = value" lines.
func (a *App) Registers() []string {
	return a.engine.Registers().Lines()
}

// Evaluate submits expr as if it had been typed and entered. The line being
// edited on the keypad is left alone.
func (a *App) Evaluate(expr string) (string, error) {
	var l calc.InputLine
	l.Set(expr)
	res, err := a.engine.Submit(&l)
	if err != nil {
		return "", err
	}
	a.last = expr
	a.scheduleFlush()
	a.redraw()
	return res.Text(), nil
}
