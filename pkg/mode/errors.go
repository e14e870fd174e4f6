package mode

import "errors"

// ErrNotManual is returned when a drive command arrives while a behavior
// holds drive authority.
var ErrNotManual = errors.New("drive command refused outside manual mode")
