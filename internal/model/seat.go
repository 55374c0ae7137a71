package model

// SeatStatus is the read-model projection of one seat row used by the
// public seat map.  Seats are uniquely identified by their event and
// seat number (the database enforces UNIQUE(event_id, seat_number))
// and the Booked flag transitions false -> true exactly once, via the
// conditional claim in the seat repository; it never reverts.
// Internal row identifiers are intentionally omitted.
type SeatStatus struct {
	SeatNumber uint32 `json:"seat_number"`
	Booked     bool   `json:"booked"`
}
