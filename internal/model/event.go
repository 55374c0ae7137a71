package model

import "time"

// Event represents a schedulable occurrence with a fixed seat
// inventory.  The seat rows for an event are generated once at
// creation time (numbered 1..TotalSeats) and the shape of the
// inventory never changes afterwards.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title of the event.
//  Description – optional free-form description.
//  Date        – when the event takes place (UTC).
//  Location    – venue name or address.
//  TotalSeats  – number of seats provisioned; always >= 1.
//  CreatedAt   – creation timestamp.
type Event struct {
	ID          uint64    // events.id
	Title       string    // events.title
	Description string    // events.description
	Date        time.Time // events.date
	Location    string    // events.location
	TotalSeats  uint32    // events.total_seats
	CreatedAt   time.Time // events.created_at
}
