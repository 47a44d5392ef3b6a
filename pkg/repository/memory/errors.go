package memory

import "errors"

// ErrNotFound is returned when a requested chunk does not exist
var ErrNotFound = errors.New("not found")
