package assemble

import "errors"

// ErrEmptyStore is returned when Build is given a store with no frames.
var ErrEmptyStore = errors.New("assemble: store has no frames")
