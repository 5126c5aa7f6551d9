package service

import "errors"

// ErrInvalidConfig is returned by Run before any cohort is built when the
// run's parameters cannot be satisfied.
var ErrInvalidConfig = errors.New("invalid run configuration")
