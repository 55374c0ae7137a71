// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation service and handlers to distinguish between different
// failure scenarios without string matching.
package repository

import "errors"

// ErrEventNotFound is returned when the requested event does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrUserNotFound is returned when a user id or username does not
// resolve to an existing account.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when registration collides with an
// existing username. Handlers should translate this into HTTP 409.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when registration collides with an
// existing email address. Handlers should translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")
