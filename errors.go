package vkframe

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrFatal matches every *FatalError.
	ErrFatal = errors.New("fatal render error")
	// ErrClosed is returned when work is handed to a stopped worker.
	ErrClosed = errors.New("worker closed")
	// ErrZeroExtent is returned when the window has no drawable area, usually because it
	// is minimized. The swapchain stays stale until the window is restored.
	ErrZeroExtent = errors.New("window has zero extent")
	// ErrNoDevice is returned when no physical device can run the context.
	ErrNoDevice = errors.New("no suitable physical device")
	// ErrRecordIncomplete is reported when a recording function returns without ending
	// its command buffer.
	ErrRecordIncomplete = errors.New("recording returned without ending the command buffer")
)

// FatalError reports a failure after which the frame loop cannot draw anything, such as a
// missing pipeline.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func (e *FatalError) Is(target error) bool { return target == ErrFatal }

// creationFailed logs a failed native object creation and returns it wrapped.
func creationFailed(err error, object string) error {
	Logger().Error("failed to create "+object, "err", err)
	return errors.Wrapf(err, "create %s", object)
}

// fatal logs and escalates a failure to a *FatalError.
func fatal(err error, op string) error {
	Logger().Error("fatal: "+op, "err", err)
	return &FatalError{Op: op, Err: err}
}
