package models

import "errors"

// ErrNotFound is returned by stores when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the acting profile lacks the privilege
// required for a mutation.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals a uniqueness clash, e.g. importing a fragrance that
// already exists for the same brand.
var ErrConflict = errors.New("conflict")
