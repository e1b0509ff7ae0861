// Package xerrors provides the error classification used throughout the
// pipeline: every fatal condition is tagged with a Kind so the lifecycle can
// report a single human-readable label alongside the exit-1 diagnostic.
package xerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why an error occurred.
type Kind int

const (
	// KindUnknown is the default for errors that do not match any other kind.
	KindUnknown Kind = iota
	// KindArgument covers malformed CLI input, bad flag combinations, and
	// unreadable input/output paths.
	KindArgument
	// KindInput covers malformed XML and missing required packet fields.
	KindInput
	// KindProgramBug covers invariant violations: executor gaps, unreachable
	// mode branches, state-machine impossibilities. Always fatal.
	KindProgramBug
	// KindIO covers underlying read/write failures.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "argument error"
	case KindInput:
		return "input error"
	case KindProgramBug:
		return "program bug"
	case KindIO:
		return "I/O error"
	default:
		return "unknown"
	}
}

// Standard sentinel errors for common conditions, mirrored per-kind below.
var (
	ErrTooManyModes      = errors.New("more than one mode flag specified")
	ErrNoMode            = errors.New("no mode flag specified")
	ErrExecutorGap       = errors.New("executor observed a sequence gap")
	ErrNoActionMatch     = errors.New("no action predicate matched (sentinel missing)")
	ErrQueueMisuse       = errors.New("push after splitter finished")
	ErrBadState          = errors.New("lifecycle state transition impossible")
	ErrInvalidTolerance  = errors.New("reorder tolerance must be positive")
	ErrTruncatedFragment = errors.New("input ended mid-document")
)

// Classified wraps an error with the component/operation it originated from,
// following the "component.method: action failed" message shape.
type Classified struct {
	Kind      Kind
	Err       error
	Message   string
	Component string
	Operation string
}

func (c *Classified) Error() string {
	if c.Message != "" {
		return c.Message
	}
	if c.Err != nil {
		return c.Err.Error()
	}
	return c.Kind.String()
}

func (c *Classified) Unwrap() error { return c.Err }

func newClassified(kind Kind, err error, component, operation, message string) *Classified {
	return &Classified{Kind: kind, Err: err, Component: component, Operation: operation, Message: message}
}

// Wrap formats "component.method: action failed: %w" without classifying.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapArgument classifies err as an argument error.
func WrapArgument(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(KindArgument, wrapped, component, method, wrapped.Error())
}

// WrapInput classifies err as an input error.
func WrapInput(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(KindInput, wrapped, component, method, wrapped.Error())
}

// WrapProgramBug classifies err as a program bug. Always fatal.
func WrapProgramBug(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(KindProgramBug, wrapped, component, method, wrapped.Error())
}

// WrapIO classifies err as an I/O error.
func WrapIO(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(KindIO, wrapped, component, method, wrapped.Error())
}

// Classify inspects err for a Classified wrapper, falling back to substring
// pattern matching against its message, and finally to KindUnknown. There is
// no retry-biased default here: this is a one-shot batch tool, not a
// service with a retry loop.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var c *Classified
	if errors.As(err, &c) {
		return c.Kind
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "invalid thread count"), strings.Contains(msg, "flag"):
		return KindArgument
	case strings.Contains(msg, "xml"), strings.Contains(msg, "malformed"), strings.Contains(msg, "missing required field"):
		return KindInput
	case strings.Contains(msg, "program bug"), strings.Contains(msg, "invariant"), strings.Contains(msg, "gap"):
		return KindProgramBug
	case strings.Contains(msg, "read"), strings.Contains(msg, "write"), strings.Contains(msg, "eof"), strings.Contains(msg, "i/o"):
		return KindIO
	default:
		return KindUnknown
	}
}

// Of returns the Kind of err (see Classify) and its message, ready for a
// single exit-1 diagnostic line.
func Of(err error) (Kind, string) {
	if err == nil {
		return KindUnknown, ""
	}
	return Classify(err), err.Error()
}
