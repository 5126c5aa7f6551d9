package event

import "errors"

// Sentinel errors for event vocabulary lookups.
var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrNoPairs          = errors.New("no event pairs")
)
