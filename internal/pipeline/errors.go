// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a query abandoned because its caller cancelled the
// context. Distinct from failure in metrics and task status.
var ErrCancelled = errors.New("query cancelled")

// Error wraps a fatal stage failure with the stage it happened in.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
