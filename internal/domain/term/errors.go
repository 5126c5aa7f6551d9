package term

import "errors"

// ErrInvalidTerm is returned for codes that are not CYYM admit terms.
var ErrInvalidTerm = errors.New("invalid term")
