package repository

import "errors"

// Sentinel errors for the repository.
var (
	ErrNotFound = errors.New("not found")
	ErrClosed   = errors.New("repository closed")
)
