package backward

import "errors"

// ErrFrameMissing is returned when prune_time_range's window references
// a frame the store has not yet accumulated.
var ErrFrameMissing = errors.New("backward: frame missing from store")
