package core

import "errors"

// ErrInvalid is returned when a domain value fails validation.
var ErrInvalid = errors.New("invalid")
