package difftree

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryAlreadyPresent is returned when a tree or bucket is entered
	// while still open on the same goroutine.
	ErrEntryAlreadyPresent = errors.New("entry already present")
	// ErrNoPendingEntry is returned when a tree or bucket is exited
	// without a matching enter.
	ErrNoPendingEntry = errors.New("no pending entry")
	// ErrUnclosedEntry is returned when a walk finishes with trees or
	// buckets entered but never exited.
	ErrUnclosedEntry = errors.New("entry never exited")
	// ErrAbsentPair is returned when both sides of an event are nil.
	ErrAbsentPair = errors.New("both sides are absent")
)

// ProtocolError reports a broken enter/exit pairing between a pre-order walk
// and the post-order adapter. The walk is aborted when it happens and the
// output already delivered to the Consumer is left as is.
type ProtocolError struct {
	// Op is "enter", "exit" or "walk".
	Op string
	// Kind is "tree" or "bucket".
	Kind string
	// Path is the tree path, or "parent/depth/index" for buckets.
	Path string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s %s '%s': %s", e.Op, e.Kind, e.Path, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
