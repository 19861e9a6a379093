// Package errors provides annotated errors that carry slog attributes and the
// source location of the wrap site for structured logging.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

// Re-exports so that callers don't need to import both this package and the
// standard library errors package.
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// annotatedError wraps an error with a message, optional slog attributes, and
// the program counter of the wrap site.
type annotatedError struct {
	msg   string
	attrs []slog.Attr
	pc    uintptr
	err   error
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// sentinelError is an error meant to be declared as a package-level variable
// and matched with Is.
type sentinelError struct {
	msg string
}

func (e *sentinelError) Error() string {
	return e.msg
}

// NewSentinel creates a sentinel error for package-level error variables.
func NewSentinel(msg string) error {
	return &sentinelError{msg: msg}
}

// Wrap annotates err with a message and optional slog attributes. The wrap
// site is recorded so that SlogError can point at the offending line instead
// of this package.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	var pcs [1]uintptr
	// Skip runtime.Callers and Wrap itself.
	runtime.Callers(2, pcs[:]) //nolint:mnd // see comment above.
	return &annotatedError{
		msg:   msg,
		attrs: attrs,
		pc:    pcs[0],
		err:   err,
	}
}

// DecoratePanic converts a value recovered from a panic into an error pointing
// at the panic site. Returns nil when excp is nil.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	var pcs [32]uintptr
	n := runtime.Callers(2, pcs[:]) //nolint:mnd // skip runtime.Callers and DecoratePanic.
	frames := runtime.CallersFrames(pcs[:n])
	var pc uintptr
	seenGopanic := false
	for {
		frame, more := frames.Next()
		if strings.HasPrefix(frame.Function, "runtime.") {
			if frame.Function == "runtime.gopanic" {
				seenGopanic = true
			}
		} else if seenGopanic {
			pc = frame.PC
			break
		}
		if !more {
			break
		}
	}
	return &annotatedError{
		msg:   fmt.Sprintf("panic: %v", excp),
		attrs: nil,
		pc:    pc,
		err:   nil,
	}
}

// SlogError renders err as a slog.Attr with the message, the annotations
// accumulated through the error chain, and the source of the deepest wrap
// site.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}

	var (
		annotations []slog.Attr
		pc          uintptr
	)
	collectAnnotations(err, &annotations, &pc)

	attrs := []slog.Attr{slog.String("message", err.Error())}
	if pc != 0 {
		frames := runtime.CallersFrames([]uintptr{pc})
		frame, _ := frames.Next()
		attrs = append(attrs, slog.String("source",
			fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)))
	}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Attr{Key: "annotations", Value: slog.GroupValue(annotations...)})
	}

	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

// collectAnnotations walks the error chain, including errors joined with
// errors.Join, gathering attributes and remembering the first wrap site.
func collectAnnotations(err error, annotations *[]slog.Attr, pc *uintptr) {
	for err != nil {
		var annotated *annotatedError
		if errors.As(err, &annotated) {
			*annotations = append(*annotations, annotated.attrs...)
			if *pc == 0 {
				*pc = annotated.pc
			}
			err = annotated.err
			continue
		}
		switch unwrappable := err.(type) { //nolint:errorlint // chain walk needs the concrete unwrap shape.
		case interface{ Unwrap() error }:
			err = unwrappable.Unwrap()
		case interface{ Unwrap() []error }:
			for _, joined := range unwrappable.Unwrap() {
				collectAnnotations(joined, annotations, pc)
			}
			return
		default:
			return
		}
	}
}
