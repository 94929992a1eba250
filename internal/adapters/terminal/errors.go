package terminal

import "errors"

// ErrAborted reports that input ended before the form was complete.
var ErrAborted = errors.New("input ended before the form was complete")
