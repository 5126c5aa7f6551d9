package institution

import "errors"

// ErrUnknownInstitution is returned for campus codes outside the catalog.
var ErrUnknownInstitution = errors.New("unknown institution")
