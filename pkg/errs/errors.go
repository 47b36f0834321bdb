// Package errs classifies failures at the boundaries of the conversation core.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which class of failure an error belongs to.
type Kind string

const (
	KindInput     Kind = "input"
	KindProvider  Kind = "provider"
	KindCacheMiss Kind = "cache_miss"
	KindStore     Kind = "store"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrInput     = errors.New("invalid input")
	ErrProvider  = errors.New("model provider failure")
	ErrCacheMiss = errors.New("document record not cached")
	ErrStore     = errors.New("document store failure")
)

// Error carries the kind, the failing operation and the cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindInput:
		return ErrInput
	case KindProvider:
		return ErrProvider
	case KindCacheMiss:
		return ErrCacheMiss
	default:
		return ErrStore
	}
}

func Input(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInput, Op: op, Err: fmt.Errorf(format, args...)}
}

func Provider(op string, err error) error {
	return &Error{Kind: KindProvider, Op: op, Err: err}
}

func CacheMiss(op, hash string) error {
	return &Error{Kind: KindCacheMiss, Op: op, Err: fmt.Errorf("no record for hash %s", hash)}
}

func Store(op string, err error) error {
	return &Error{Kind: KindStore, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
