package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is a coded pipeline error. Op names the stage that produced it.
type Error struct {
	Code ErrorCode
	Op   string
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Op == "" && t.Msg == ""
}

// New creates a coded error.
func New(code ErrorCode, op, msg string) *Error {
	return &Error{Code: code, Op: op, Msg: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. A nil err yields nil.
func Wrap(err error, code ErrorCode, op, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Msg: msg, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, op, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Code returns a sentinel usable with errors.Is to match any error of the given code.
func Code(code ErrorCode) error {
	return &Error{Code: code}
}

// CodeOf returns the code of the outermost *Error in err's chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ExitCode maps err to a process exit code. A nil error is 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return CodeOf(err).ExitCode()
}
