// Package service contains the reservation coordinator: the one
// component in the system with a real correctness hazard.  Two
// concurrent requests for overlapping seat sets must never both win
// the same seat.  The coordinator avoids the check-then-act race by
// delegating each seat decision to an atomic conditional update in
// the store; it never reads a seat's state and writes it in separate
// steps.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// ErrInvalidRequest is returned when the requested seat set is empty
// or contains no usable seat numbers.  Handlers translate it to 400.
var ErrInvalidRequest = errors.New("invalid reservation request")

// ErrUnauthorized is returned when the caller identity does not
// resolve to an existing user.  Handlers translate it to 401.
var ErrUnauthorized = errors.New("unknown user")

// ErrStorageUnavailable wraps transient persistence failures.  The
// whole request is safe to retry: already-granted seats simply come
// back as denied on the next attempt.
var ErrStorageUnavailable = errors.New("storage unavailable")

// EventStore is the event lookup the coordinator needs.  Implemented
// by repository.EventRepo.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
}

// UserStore resolves caller identities.  Implemented by
// repository.UserRepo.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SeatClaimer performs the atomic claim-and-record unit of work for a
// single seat.  Implemented by repository.ReservationStore.
type SeatClaimer interface {
	ClaimAndRecord(ctx context.Context, eventID, userID uint64, seatNumber uint32) (model.Booking, bool, error)
}

// GrantedSeat is one successfully claimed seat together with its
// ledger entry.
type GrantedSeat struct {
	SeatNumber uint32    `json:"seat_number"`
	BookingID  uint64    `json:"booking_id"`
	BookedAt   time.Time `json:"booked_at"`
}

// Outcome partitions a reservation request into the seats that were
// claimed and the seats that were not (already booked or out of
// range).  Partial success is a normal result, not an error.
type Outcome struct {
	Granted []GrantedSeat `json:"granted"`
	Denied  []uint32      `json:"denied"`
}

// ReservationService coordinates multi-seat reservation requests.
type ReservationService struct {
	events EventStore
	users  UserStore
	store  SeatClaimer
}

// NewReservationService constructs the coordinator.  All dependencies
// must be non-nil.
func NewReservationService(events EventStore, users UserStore, store SeatClaimer) *ReservationService {
	if events == nil || users == nil || store == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{events: events, users: users, store: store}
}

// Reserve attempts to claim the requested seat numbers of one event
// for one user.  Validation happens before any storage write: the
// seat set must contain at least one candidate seat after dropping
// duplicates (zero alone is no candidate), the event must exist and
// the user must exist.  Each candidate is then claimed through its
// own atomic unit of work; seats that lost the race, are already
// booked or lie outside 1..total_seats end up in Denied.  Seat number
// zero is never valid and is reported denied like any other
// out-of-range number, so every requested seat appears in exactly one
// of the two lists.
//
// Atomicity is per seat, not per request: once a seat's claim has
// committed it is not rolled back by a later failure in the same
// request.  On a storage error the partial outcome accumulated so far
// is returned together with ErrStorageUnavailable, and retrying the
// whole request is safe.
func (s *ReservationService) Reserve(ctx context.Context, eventID, userID uint64, seatNumbers []uint32) (Outcome, error) {
	// Drop duplicates while preserving request order.  A request is
	// only workable when it names at least one nonzero seat.
	unique := make([]uint32, 0, len(seatNumbers))
	seen := make(map[uint32]struct{}, len(seatNumbers))
	candidates := 0
	for _, n := range seatNumbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
		if n != 0 {
			candidates++
		}
	}
	if candidates == 0 {
		return Outcome{}, ErrInvalidRequest
	}

	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return Outcome{}, err
		}
		return Outcome{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Outcome{}, ErrUnauthorized
		}
		return Outcome{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	out := Outcome{Granted: []GrantedSeat{}, Denied: []uint32{}}
	for _, n := range unique {
		// Zero and out-of-range numbers are not-found, not fatal.
		if n == 0 || n > ev.TotalSeats {
			out.Denied = append(out.Denied, n)
			continue
		}
		booking, claimed, err := s.store.ClaimAndRecord(ctx, eventID, userID, n)
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if !claimed {
			out.Denied = append(out.Denied, n)
			continue
		}
		out.Granted = append(out.Granted, GrantedSeat{
			SeatNumber: n,
			BookingID:  booking.ID,
			BookedAt:   booking.BookedAt,
		})
	}
	return out, nil
}
