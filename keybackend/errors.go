package keybackend

import "errors"

// ErrEmptyKey is returned when a key or secret file exists but holds no material.
var ErrEmptyKey = errors.New("key material is empty")
