package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// ReservationStore binds the seat inventory and the booking ledger
// into the per-seat atomic unit of work the coordinator relies on:
// flip the seat and append the booking, or do neither.
type ReservationStore struct {
	db       *sql.DB
	seats    *SeatRepo
	bookings *BookingRepo
}

// NewReservationStore constructs a ReservationStore.  All
// dependencies must be non-nil.
func NewReservationStore(db *sql.DB, seats *SeatRepo, bookings *BookingRepo) *ReservationStore {
	if db == nil || seats == nil || bookings == nil {
		panic("nil dependency passed to NewReservationStore")
	}
	return &ReservationStore{db: db, seats: seats, bookings: bookings}
}

// ClaimAndRecord claims one seat for a user inside a single
// transaction.  When the conditional update wins, the booking row is
// appended in the same transaction and both commit together; a crash
// mid-operation therefore can never leave a booked seat without a
// booking or vice versa.  When the seat is already booked or does not
// exist, the transaction is rolled back and claimed=false is
// returned with no error.
func (s *ReservationStore) ClaimAndRecord(ctx context.Context, eventID, userID uint64, seatNumber uint32) (model.Booking, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	seatID, claimed, err := s.seats.ClaimTx(ctx, tx, eventID, seatNumber)
	if err != nil {
		return model.Booking{}, false, err
	}
	if !claimed {
		return model.Booking{}, false, nil
	}
	booking, err := s.bookings.CreateTx(ctx, tx, userID, eventID, seatID)
	if err != nil {
		return model.Booking{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, false, err
	}
	committed = true
	return booking, true, nil
}
