package revise

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine failure conditions.
var (
	ErrBadDocument  = errors.New("revise: document cannot be processed")
	ErrEncrypted    = errors.New("revise: document is encrypted")
	ErrInvalidParam = errors.New("revise: invalid parameter")
)

// Error represents a failure of one engine stage. It wraps an underlying
// error and names the stage for context.
type Error struct {
	Op  string // stage name: "config", "parse", "analyze", "compose"
	Err error  // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("revise.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("revise.%s: unknown error", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates a new Error wrapping the given error with stage context.
func newError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}
