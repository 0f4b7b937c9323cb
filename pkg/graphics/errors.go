package graphics

import (
	"errors"
	"fmt"

	"github.com/menta2k/page-annotator/pkg/types"
)

// ErrInvalidArgument is matched by every geometric precondition failure
var ErrInvalidArgument = errors.New("invalid argument")

// RectError reports a rectangle that violates a crop precondition.
// Bounds is the image area the rectangle was checked against.
type RectError struct {
	Op     string
	Rect   types.Rectangle
	Bounds types.Rectangle
	Reason string
}

func (e *RectError) Error() string {
	return fmt.Sprintf("%s: %s %s; image area %s", e.Op, e.Rect, e.Reason, e.Bounds)
}

func (e *RectError) Unwrap() error {
	return ErrInvalidArgument
}
