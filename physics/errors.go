package physics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle is returned when a handle does not name a live body.
	ErrInvalidHandle = errors.New("physics: invalid handle")
	// ErrWorldLocked is returned for registry changes attempted during Step.
	ErrWorldLocked = errors.New("physics: world is stepping")
	// ErrMissingWorld is returned when an operation needs a world and has none.
	ErrMissingWorld = errors.New("physics: missing world")
	// ErrInvalidConfig is returned by NewWorld for unusable configuration.
	ErrInvalidConfig = errors.New("physics: invalid config")
)

// ConstructionWarning records malformed shape input that was replaced by a
// safe default while a body was being built.
type ConstructionWarning struct {
	Node    string
	Shape   int
	Message string
}

func (w ConstructionWarning) Error() string {
	if w.Shape < 0 {
		return fmt.Sprintf("physics: node %q: %s", w.Node, w.Message)
	}
	return fmt.Sprintf("physics: node %q shape %d: %s", w.Node, w.Shape, w.Message)
}
