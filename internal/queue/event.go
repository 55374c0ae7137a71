// Package queue defines message payloads exchanged over the message broker.
package queue

// SeatsReservedEvent is published after a reservation request commits
// at least one seat.  It carries enough information for downstream
// consumers to log, notify, or feed analytics without querying the
// primary database.
type SeatsReservedEvent struct {
	UserID      uint64   `json:"user_id"`
	Username    string   `json:"username"`
	EventID     uint64   `json:"event_id"`
	EventTitle  string   `json:"event_title"`
	SeatNumbers []uint32 `json:"seats"`
	BookingIDs  []uint64 `json:"booking_ids"`
	ReservedAt  string   `json:"reserved_at"`
}
