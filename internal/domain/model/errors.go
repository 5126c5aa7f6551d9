package model

import "errors"

// ErrInvalidDate is returned when a date string matches no known layout.
var ErrInvalidDate = errors.New("invalid date")
