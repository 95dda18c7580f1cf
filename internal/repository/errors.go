// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrInsufficientStock signals that a locked
// availability check found fewer sellable tickets than requested.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as restoring a booking whose freed stock
// has since been resold. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// ErrInsufficientStock is returned by TierRepo.ReserveTx when the
// locked row's available counter is smaller than the requested
// quantity. This is an expected business outcome, not a failure to be
// logged; handlers report which tier was short.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrEventNotFound is returned when a referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrTierNotFound is returned when a referenced ticket tier does not
// exist.
var ErrTierNotFound = errors.New("ticket tier not found")

// ErrBookingNotFound is returned when a referenced booking does not
// exist.
var ErrBookingNotFound = errors.New("booking not found")
