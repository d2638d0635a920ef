package calc

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty        = errors.New("empty expression")
	ErrSyntax       = errors.New("syntax error")
	ErrUnknownIdent = errors.New("unknown identifier")
	ErrEval         = errors.New("evaluation error")
)

// ExpressionError describes why an input line could not be evaluated.
// It unwraps to one of ErrEmpty, ErrSyntax, ErrUnknownIdent or ErrEval.
type ExpressionError struct {
	Kind error
	Msg  string
	Pos  int // byte offset into the input, -1 when not tied to a position
}

func (e *ExpressionError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

func (e *ExpressionError) Unwrap() error { return e.Kind }

func syntaxErr(pos int, format string, args ...any) error {
	return &ExpressionError{Kind: ErrSyntax, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// Short returns a message short enough for the status line.
func Short(err error) string {
	var ee *ExpressionError
	if !errors.As(err, &ee) {
		return "error"
	}
	switch {
	case errors.Is(ee.Kind, ErrUnknownIdent):
		return "unknown " + ee.Msg
	case errors.Is(ee.Kind, ErrEval):
		return ee.Msg
	case errors.Is(ee.Kind, ErrEmpty):
		return "empty"
	default:
		return "syntax error"
	}
}
