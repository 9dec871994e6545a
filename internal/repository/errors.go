// Package repository implements the engine's Store contract and the
// user/token persistence against MySQL. Sentinel values defined
// here let handlers distinguish failure scenarios; storage-level
// constraint violations (duplicate nights, duplicate idempotency
// keys) are translated into the engine package's sentinels at the
// point where the MySQL error surfaces.
package repository

import "errors"

// ErrEmailExists is returned when registering a user with an email
// address that is already taken. Handlers translate this into an
// HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrBookingNotFound is returned when a referenced booking does not
// exist. Handlers translate this into an HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrBookingCancelled is returned when a status update would
// reactivate a cancelled booking. Handlers translate this into an
// HTTP 409 response.
var ErrBookingCancelled = errors.New("booking is cancelled")
