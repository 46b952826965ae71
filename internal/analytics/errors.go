package analytics

import "errors"

var ErrNoEvents = errors.New("no events available")
