package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// fakeEvents returns a fixed set of events by id.
type fakeEvents struct {
	events map[uint64]model.Event
}

func (f *fakeEvents) GetByID(_ context.Context, id uint64) (model.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	return ev, nil
}

// fakeUsers returns a fixed set of users by id.
type fakeUsers struct {
	users map[uint64]model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

// fakeStore mimics the per-seat atomic unit of work with a mutex: the
// claim decision and the ledger append happen under one lock, exactly
// as the SQL store commits them in one transaction.
type fakeStore struct {
	mu     sync.Mutex
	total  uint32
	owners map[uint32]uint64 // seat number -> user who claimed it
	ledger []model.Booking
	nextID uint64
	failOn map[uint32]error // seat number -> injected storage error
}

func newFakeStore(total uint32) *fakeStore {
	return &fakeStore{
		total:  total,
		owners: make(map[uint32]uint64),
		failOn: make(map[uint32]error),
	}
}

func (f *fakeStore) ClaimAndRecord(_ context.Context, eventID, userID uint64, seatNumber uint32) (model.Booking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[seatNumber]; ok {
		return model.Booking{}, false, err
	}
	if seatNumber == 0 || seatNumber > f.total {
		return model.Booking{}, false, nil
	}
	if _, taken := f.owners[seatNumber]; taken {
		return model.Booking{}, false, nil
	}
	f.owners[seatNumber] = userID
	f.nextID++
	b := model.Booking{
		ID:       f.nextID,
		UserID:   userID,
		EventID:  eventID,
		SeatID:   uint64(seatNumber),
		BookedAt: time.Now().UTC(),
	}
	f.ledger = append(f.ledger, b)
	return b, true, nil
}

func newTestService(totalSeats uint32) (*ReservationService, *fakeStore) {
	store := newFakeStore(totalSeats)
	svc := NewReservationService(
		&fakeEvents{events: map[uint64]model.Event{
			1: {ID: 1, Title: "Go Conference", TotalSeats: totalSeats},
		}},
		&fakeUsers{users: map[uint64]model.User{
			10: {ID: 10, Username: "alice"},
			11: {ID: 11, Username: "bob"},
		}},
		store,
	)
	return svc, store
}

func TestReserve_GrantsFreeSeats(t *testing.T) {
	svc, store := newTestService(5)

	out, err := svc.Reserve(context.Background(), 1, 10, []uint32{1, 3, 5})
	require.NoError(t, err)
	require.Len(t, out.Granted, 3)
	assert.Empty(t, out.Denied)
	for i, want := range []uint32{1, 3, 5} {
		assert.Equal(t, want, out.Granted[i].SeatNumber)
		assert.NotZero(t, out.Granted[i].BookingID)
	}
	// Conservation: one ledger entry per claimed seat.
	assert.Len(t, store.ledger, 3)
	assert.Len(t, store.owners, 3)
}

func TestReserve_DeniesBookedAndOutOfRange(t *testing.T) {
	svc, store := newTestService(10)

	_, err := svc.Reserve(context.Background(), 1, 10, []uint32{2})
	require.NoError(t, err)

	out, err := svc.Reserve(context.Background(), 1, 11, []uint32{2, 99})
	require.NoError(t, err)
	assert.Empty(t, out.Granted)
	assert.ElementsMatch(t, []uint32{2, 99}, out.Denied)
	// No booking was created for the denied seats.
	assert.Len(t, store.ledger, 1)
	assert.Equal(t, uint64(10), store.owners[2])
}

func TestReserve_DeduplicatesRequestedSeats(t *testing.T) {
	svc, store := newTestService(5)

	out, err := svc.Reserve(context.Background(), 1, 10, []uint32{4, 4, 4, 2})
	require.NoError(t, err)
	require.Len(t, out.Granted, 2)
	assert.Equal(t, uint32(4), out.Granted[0].SeatNumber)
	assert.Equal(t, uint32(2), out.Granted[1].SeatNumber)
	assert.Empty(t, out.Denied)
	assert.Len(t, store.ledger, 2)
}

func TestReserve_ZeroSeatNumberIsDenied(t *testing.T) {
	svc, store := newTestService(5)

	// Every requested seat shows up in exactly one of the two lists:
	// zero is denied alongside the grant, never silently dropped.
	out, err := svc.Reserve(context.Background(), 1, 10, []uint32{0, 4})
	require.NoError(t, err)
	require.Len(t, out.Granted, 1)
	assert.Equal(t, uint32(4), out.Granted[0].SeatNumber)
	assert.Equal(t, []uint32{0}, out.Denied)
	assert.Len(t, store.ledger, 1)
}

func TestReserve_InvalidRequest(t *testing.T) {
	svc, _ := newTestService(5)

	_, err := svc.Reserve(context.Background(), 1, 10, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Reserve(context.Background(), 1, 10, []uint32{0, 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestReserve_UnknownEventAndUser(t *testing.T) {
	svc, _ := newTestService(5)

	_, err := svc.Reserve(context.Background(), 42, 10, []uint32{1})
	assert.ErrorIs(t, err, repository.ErrEventNotFound)

	_, err = svc.Reserve(context.Background(), 1, 99, []uint32{1})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestReserve_RetryAfterDenial(t *testing.T) {
	svc, _ := newTestService(5)

	_, err := svc.Reserve(context.Background(), 1, 10, []uint32{2})
	require.NoError(t, err)

	out, err := svc.Reserve(context.Background(), 1, 11, []uint32{2})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, out.Denied)

	// Immediately retrying with a different free seat succeeds.
	out, err = svc.Reserve(context.Background(), 1, 11, []uint32{3})
	require.NoError(t, err)
	require.Len(t, out.Granted, 1)
	assert.Equal(t, uint32(3), out.Granted[0].SeatNumber)
}

func TestReserve_StorageErrorKeepsPartialOutcome(t *testing.T) {
	svc, store := newTestService(5)
	store.failOn[2] = errors.New("connection reset")

	out, err := svc.Reserve(context.Background(), 1, 10, []uint32{1, 2, 3})
	require.ErrorIs(t, err, ErrStorageUnavailable)
	// Seat 1 committed before the failure and stays granted; seat 3
	// was never attempted.
	require.Len(t, out.Granted, 1)
	assert.Equal(t, uint32(1), out.Granted[0].SeatNumber)
	assert.Len(t, store.ledger, 1)

	// Retrying the whole request is safe: seat 1 now shows up denied,
	// the rest are re-evaluated against current state.
	delete(store.failOn, 2)
	out, err = svc.Reserve(context.Background(), 1, 10, []uint32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, out.Denied)
	require.Len(t, out.Granted, 2)
}

func TestReserve_PartialOverlapBetweenTwoCallers(t *testing.T) {
	svc, store := newTestService(3)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 2)
	requests := [][]uint32{{1, 2}, {2, 3}}
	users := []uint64{10, 11}
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			out, err := svc.Reserve(context.Background(), 1, users[i], requests[i])
			assert.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	granted2 := 0
	for i, out := range outcomes {
		for _, g := range out.Granted {
			if g.SeatNumber == 2 {
				granted2++
			}
		}
		// Each caller's non-overlapping seat was granted to them.
		own := requests[i][0]
		if i == 1 {
			own = requests[i][1]
		}
		found := false
		for _, g := range out.Granted {
			if g.SeatNumber == own {
				found = true
			}
		}
		assert.True(t, found, "caller %d should hold seat %d", i, own)
	}
	// Exactly one caller won seat 2; the other saw it denied.
	assert.Equal(t, 1, granted2)
	assert.Len(t, store.ledger, 3)
}

func TestReserve_NoDoubleBookingUnderConcurrency(t *testing.T) {
	const totalSeats = 40
	const callers = 16
	svc, store := newTestService(totalSeats)

	// Every caller requests an overlapping window of seats.
	var wg sync.WaitGroup
	outcomes := make([]Outcome, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			seats := make([]uint32, 0, totalSeats/2)
			for n := uint32(1); n <= totalSeats/2; n++ {
				seats = append(seats, n+uint32(i)%5)
			}
			out, err := svc.Reserve(context.Background(), 1, 10, seats)
			assert.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	// The union of all granted seats contains each seat at most once.
	grantedUnion := make(map[uint32]int)
	for _, out := range outcomes {
		for _, g := range out.Granted {
			grantedUnion[g.SeatNumber]++
		}
	}
	for seat, count := range grantedUnion {
		assert.Equalf(t, 1, count, "seat %d granted %d times", seat, count)
	}

	// The final inventory marks exactly the granted seats as booked,
	// and the ledger holds one booking per booked seat.
	assert.Equal(t, len(grantedUnion), len(store.owners))
	assert.Equal(t, len(grantedUnion), len(store.ledger))
	for seat := range grantedUnion {
		_, booked := store.owners[seat]
		assert.Truef(t, booked, "seat %d granted but not booked in inventory", seat)
	}
}
