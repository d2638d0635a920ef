// Package calc evaluates calculator input lines against the M1..M4 registers
// using 16 significant decimal digits.
package calc

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Result is the outcome of evaluating one line.
type Result struct {
	Value *apd.Decimal
	// Target is the register named before "=", when Assign is set.
	Target Register
	Assign bool
}

// Text is the formatted value.
func (r Result) Text() string { return Format(r.Value) }

// Line is the editable input line consumed by Submit.
type Line interface {
	Text() string
	Clear()
}

// Appender receives every successful result as formatted text.
type Appender interface {
	Append(entry string)
}

// Engine evaluates input lines and owns the registers.
type Engine struct {
	regs    Registers
	history Appender
	log     *slog.Logger
}

// NewEngine creates an engine with all registers at zero. history may be nil.
func NewEngine(history Appender, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{history: history, log: log}
}

// Registers exposes the register file.
func (e *Engine) Registers() *Registers { return &e.regs }

// Register returns a copy of register r.
func (e *Engine) Register(r Register) *apd.Decimal { return e.regs.Get(r) }

// Evaluate computes expr without changing any state.
//
// Grammar: [("M3"|"M4") "="] [op] operand (op operand)*, where operand is a
// decimal literal or M1..M4 and op is one of + - * /. A leading operator
// applies to M1. Operators are applied strictly left to right.
func (e *Engine) Evaluate(expr string) (Result, error) {
	if strings.TrimSpace(expr) == "" {
		return Result{}, &ExpressionError{Kind: ErrEmpty, Pos: -1}
	}
	toks, err := tokenize(expr)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if len(toks) >= 2 && toks[0].kind == tokIdent && toks[1].kind == tokAssign {
		if !toks[0].reg.Assignable() {
			return Result{}, syntaxErr(toks[0].pos, "cannot assign %s", toks[0].text)
		}
		res.Target = toks[0].reg
		res.Assign = true
		toks = toks[2:]
	}
	if len(toks) == 0 {
		return Result{}, syntaxErr(len(expr), "missing expression")
	}

	acc := new(apd.Decimal)
	i := 0
	if toks[0].kind == tokOp {
		acc.Set(&e.regs.vals[M1])
	} else {
		if err := e.operand(acc, toks[0]); err != nil {
			return Result{}, err
		}
		i = 1
	}

	var rhs apd.Decimal
	for i < len(toks) {
		op := toks[i]
		if op.kind != tokOp {
			return Result{}, syntaxErr(op.pos, "unexpected %q", op.text)
		}
		if i+1 >= len(toks) {
			return Result{}, syntaxErr(len(expr), "missing operand after %q", op.text)
		}
		if err := e.operand(&rhs, toks[i+1]); err != nil {
			return Result{}, err
		}
		if err := apply(acc, op, &rhs); err != nil {
			return Result{}, err
		}
		i += 2
	}

	res.Value = acc
	return res, nil
}

func (e *Engine) operand(d *apd.Decimal, t token) error {
	switch t.kind {
	case tokNumber:
		d.Set(t.num)
	case tokIdent:
		d.Set(&e.regs.vals[t.reg])
	default:
		return syntaxErr(t.pos, "unexpected %q", t.text)
	}
	return nil
}

func apply(acc *apd.Decimal, op token, rhs *apd.Decimal) error {
	var err error
	switch op.text {
	case "+":
		_, err = decimalContext.Add(acc, acc, rhs)
	case "-":
		_, err = decimalContext.Sub(acc, acc, rhs)
	case "*":
		_, err = decimalContext.Mul(acc, acc, rhs)
	case "/":
		if rhs.IsZero() {
			return &ExpressionError{Kind: ErrEval, Msg: "division by zero", Pos: op.pos}
		}
		_, err = decimalContext.Quo(acc, acc, rhs)
	}
	if err != nil {
		return &ExpressionError{Kind: ErrEval, Msg: err.Error(), Pos: op.pos}
	}
	return nil
}

// Submit evaluates line and commits the result. An assignment stores into its
// target register only; any other result becomes M1 and the old M1 moves to
// M2. The formatted result is appended to history and the line is cleared.
// On error nothing changes.
func (e *Engine) Submit(line Line) (Result, error) {
	text := line.Text()
	res, err := e.Evaluate(text)
	if err != nil {
		e.log.Debug("evaluate failed", "input", text, "err", err)
		return Result{}, err
	}

	if res.Assign {
		e.regs.Set(res.Target, res.Value)
	} else {
		e.regs.push(res.Value)
	}
	if e.history != nil {
		e.history.Append(res.Text())
	}
	line.Clear()

	e.log.Debug("evaluated", "input", text, "result", res.Text())
	return res, nil
}

// Store copies M1 into dst, which must be M3 or M4.
func (e *Engine) Store(dst Register) error {
	if !dst.Assignable() {
		return syntaxErr(-1, "cannot store into %s", dst)
	}
	e.regs.vals[dst].Set(&e.regs.vals[M1])
	return nil
}
