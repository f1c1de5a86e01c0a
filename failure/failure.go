// Package failure classifies the fatal conditions that abort a pipeline run.
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the category of a fatal pipeline error.
type Kind string

const (
	Acquisition  Kind = "acquisition"   // dataset could not be fetched, unpacked or read
	Schema       Kind = "schema"        // columns are missing or collide
	InvalidValue Kind = "invalid-value" // a present value could not be used in arithmetic
	DateParse    Kind = "date-parse"    // strict and inferred date parsing both failed
	Connectivity Kind = "connectivity"  // the sink could not be reached
	Write        Kind = "write"         // the sink was reached but the bulk write failed
	Config       Kind = "config"        // configuration is incomplete or invalid
	Unknown      Kind = "unknown"
)

// Error carries the Kind and the stage that raised it.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%v failure: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v failure in %v: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets github.com/pkg/errors walk through to the wrapped error.
func (e *Error) Cause() error {
	return e.Err
}

// New returns an Error of kind k with a formatted message.
func New(k Kind, stage string, format string, args ...interface{}) error {
	return &Error{Kind: k, Stage: stage, Err: errors.Errorf(format, args...)}
}

// Wrap returns an Error of kind k that wraps err with msg.
// A nil err returns nil.
func Wrap(k Kind, stage string, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Stage: stage, Err: errors.Wrap(err, msg)}
}

// KindOf returns the Kind of the first Error found in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries a failure of kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
