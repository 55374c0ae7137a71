package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// BookingRepo persists the append-only booking ledger.  A booking row
// is created strictly inside the same transaction as the seat claim
// it records, and is never updated afterwards.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx appends a booking within the scope of an existing
// transaction and populates the generated ID and timestamp on the
// returned record.  The caller must commit or rollback the
// transaction together with the seat flip.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID, eventID, seatID uint64) (model.Booking, error) {
	b := model.Booking{UserID: userID, EventID: eventID, SeatID: seatID}
	const ins = `INSERT INTO bookings (user_id, event_id, seat_id) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, userID, eventID, seatID)
	if err != nil {
		return model.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, err
	}
	b.ID = uint64(id)
	const sel = `SELECT booked_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.BookedAt); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// BookingDetail is a booking joined with event and seat information,
// returned by ListByUser for display to customers.
type BookingDetail struct {
	ID         uint64    `json:"id"`
	EventID    uint64    `json:"event_id"`
	EventTitle string    `json:"event_title"`
	EventDate  time.Time `json:"event_date"`
	Location   string    `json:"location"`
	SeatNumber uint32    `json:"seat_number"`
	BookedAt   time.Time `json:"booked_at"`
}

// ListByUser returns the booking history for a user, newest first.
// When no bookings exist an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.event_id, e.title, e.date, e.location, s.seat_number, b.booked_at
               FROM bookings b
               JOIN events e ON e.id = b.event_id
               JOIN seats s ON s.id = b.seat_id
               WHERE b.user_id = ?
               ORDER BY b.booked_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.EventTitle, &d.EventDate, &d.Location, &d.SeatNumber, &d.BookedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// CountByEvent returns the number of bookings recorded for an event.
// Together with SeatRepo.CountBooked this checks the conservation
// invariant: booked seats == booking rows.
func (r *BookingRepo) CountByEvent(ctx context.Context, eventID uint64) (uint32, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE event_id = ?`
	var n uint32
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n)
	return n, err
}
