package extract

import "errors"

// Sentinel errors for extract loading.
var (
	ErrNoExtract     = errors.New("no extract file found")
	ErrMissingColumn = errors.New("extract is missing a required column")
)
