package cohort

import "errors"

// Sentinel errors for cohort assembly.
var (
	ErrNoSession          = errors.New("no session for cohort")
	ErrMembershipMismatch = errors.New("cohort membership does not match event records")
)
