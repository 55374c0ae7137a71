package model

import "time"

// Booking is a confirmed assignment of one seat to one user.  A
// booking row is only ever created together with the seat flip that
// claimed it, inside the same transaction, and is never updated
// afterwards (append-only ledger).  At most one booking exists per
// seat.
//
// Fields:
//  ID       – primary key identifier.
//  UserID   – user who holds the seat.
//  EventID  – event the seat belongs to.
//  SeatID   – the claimed seat.
//  BookedAt – when the claim committed (UTC).
type Booking struct {
	ID       uint64    // bookings.id
	UserID   uint64    // bookings.user_id
	EventID  uint64    // bookings.event_id
	SeatID   uint64    // bookings.seat_id
	BookedAt time.Time // bookings.booked_at
}
