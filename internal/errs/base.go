// Package errs provides a small wrapped-error type used for adapter and
// venue-client error paths. Hot-path drop decisions use plain counters,
// not errors.
package errs

import (
	"errors"
)

var (
	_ error = (*wrappedError)(nil)
)

// New builds a plain error, re-exported so callers only import one errors
// package in this codebase.
func New(text string) error {
	return errors.New(text)
}

// Wrap attaches a message in front of err. Unwrap returns err, so
// errors.Is/errors.As still compose across the wrap.
func Wrap(err error, text string) error {
	if err == nil {
		return nil
	}
	if len(text) == 0 {
		return err
	}
	return &wrappedError{err: err, msg: text}
}

type wrappedError struct {
	err error
	msg string
}

const sep = ", err: "

func (e wrappedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + sep + e.err.Error()
}

func (e wrappedError) Unwrap() error {
	if e.err == nil {
		return errors.New(e.msg)
	}
	return e.err
}
