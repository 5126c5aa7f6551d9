package render

import "errors"

// ErrWriteFailed wraps every output failure.
var ErrWriteFailed = errors.New("write output")
