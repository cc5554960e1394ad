package validator

import (
	"errors"
	"fmt"
)

// ErrDirectoryNotFound is returned when the input directory is missing.
var ErrDirectoryNotFound = errors.New("directory not found")

// ErrOutputInUse is returned when another run in this process writes to the
// same input directory, holding directory or result log.
var ErrOutputInUse = errors.New("output location in use by another run")

// Kind classifies pipeline errors.
type Kind string

const (
	KindInput  Kind = "input"  // fatal, stops the run before dispatch
	KindDecode Kind = "decode" // image could not be read or decoded
	KindCheck  Kind = "check"  // a check could not evaluate
	KindMove   Kind = "move"   // placement failed
	KindLog    Kind = "log"    // result log append failed
)

// Error carries the operation and path an error happened on.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether any error in err's chain is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
