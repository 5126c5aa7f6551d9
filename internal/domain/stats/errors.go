package stats

import "errors"

// ErrUnknownField is returned for statistic names outside Fields.
var ErrUnknownField = errors.New("unknown statistic")
