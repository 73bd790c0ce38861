package lang

import (
	"fmt"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
//
// Every error returned by this package matches one of these with [errors.Is].
var (
	// Syntax errors abort the whole parse.
	ErrSyntax           = NewError("syntax error")
	ErrInvalidCharacter = NewError("invalid character")

	// Binding errors.
	ErrUndefinedVariable = NewError("undefined variable")
	ErrUnknownFunction   = NewError("unknown function")

	// Contract errors.
	ErrMissingArgument   = NewError("missing required argument")
	ErrUnknownArgument   = NewError("unknown argument")
	ErrDuplicateArgument = NewError("duplicate argument")
	ErrArgumentCount     = NewError("wrong number of arguments")
	ErrMixedArguments    = NewError("named and positional arguments mixed")
	ErrOverload          = NewError("arguments match no overload")
	ErrPrecondition      = NewError("precondition failed")

	// User-function errors.
	ErrArity         = NewError("arity mismatch")
	ErrFunctionBody  = NewError("function body failed")
	ErrMissingResult = NewError("missing result")

	ErrUnsupportedOperator  = NewError("unsupported operator")
	ErrUnsupportedOperand   = NewError("unsupported operand")
	ErrUnexpectedExpression = NewError("unexpected expression")
	ErrBuiltin              = NewError("builtin failed")
	ErrNoDispatcher         = NewError("no dispatcher")
	ErrReadInput            = NewError("failed to read input")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg    string
	detail string      // Specifics of this occurrence
	err    error       // Wrapped error (for errors.Unwrap)
	attrs  []slog.Attr // Attributes for structured logging
	base   *Error      // Sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error. An *Error is returned
// as is.
func WrapError(err error) *Error {
	if ee, ok := err.(*Error); ok { //nolint:errorlint
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message is formed from whichever fields are set, in order:
//
//	<msg>: <detail>: <err>
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	for _, s := range []string{e.msg, e.detail} {
		if s != "" {
			part = append(part, s)
		}
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t == e || (e.base != nil && t == e.base)
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.detail != "" {
		attrs = append(attrs, slog.String("detail", e.detail))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

func (e *Error) derive() *Error {
	c := *e
	if c.base == nil {
		c.base = e
	}

	return &c
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.derive()
	c.err = err

	return c
}

// Detailf creates a new Error whose message is extended with the formatted
// text.
func (e *Error) Detailf(format string, args ...any) *Error {
	c := e.derive()
	c.detail = fmt.Sprintf(format, args...)

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.derive()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}
