package repository

import "errors"

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("not found")
