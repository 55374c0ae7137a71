package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-booking/internal/database"
	"github.com/iliyamo/event-seat-booking/internal/model"
)

// openTestDB connects to the database named by TEST_DATABASE_DSN and
// ensures the schema exists.  Tests that need a real database skip
// when the variable is unset, so the suite stays runnable offline.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, database.EnsureSchema(ctx, db))
	return db
}

func createTestEvent(t *testing.T, events *EventRepo, totalSeats uint32) model.Event {
	t.Helper()
	ev := model.Event{
		Title:       fmt.Sprintf("itest-%d", time.Now().UnixNano()),
		Description: "integration fixture",
		Date:        time.Now().UTC().Add(24 * time.Hour),
		Location:    "test hall",
		TotalSeats:  totalSeats,
	}
	require.NoError(t, events.Create(context.Background(), &ev))
	t.Cleanup(func() {
		// Seats and bookings cascade off the event row.
		_, _ = events.db.Exec("DELETE FROM events WHERE id = ?", ev.ID)
	})
	return ev
}

func createTestUser(t *testing.T, users *UserRepo) uint64 {
	t.Helper()
	name := fmt.Sprintf("itest-%d", time.Now().UnixNano())
	id, err := users.Create(context.Background(), name, name+"@example.com", "password123", "CUSTOMER", 4)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = users.DB.Exec("DELETE FROM users WHERE id = ?", id)
	})
	return id
}

func TestClaimAndRecord_SingleWinnerPerSeat(t *testing.T) {
	db := openTestDB(t)
	seats := NewSeatRepo(db)
	bookings := NewBookingRepo(db)
	events := NewEventRepo(db, seats)
	users := NewUserRepo(db)
	store := NewReservationStore(db, seats, bookings)

	ev := createTestEvent(t, events, 5)
	alice := createTestUser(t, users)
	bob := createTestUser(t, users)

	ctx := context.Background()
	b, claimed, err := store.ClaimAndRecord(ctx, ev.ID, alice, 3)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.NotZero(t, b.ID)
	assert.Equal(t, alice, b.UserID)

	// The same seat cannot be claimed again.
	_, claimed, err = store.ClaimAndRecord(ctx, ev.ID, bob, 3)
	require.NoError(t, err)
	assert.False(t, claimed)

	// Out-of-range seats have no row and report not claimed.
	_, claimed, err = store.ClaimAndRecord(ctx, ev.ID, bob, 99)
	require.NoError(t, err)
	assert.False(t, claimed)

	booked, err := seats.CountBooked(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), booked)
	ledger, err := bookings.CountByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, booked, ledger)
}

func TestClaimAndRecord_ConcurrentClaimants(t *testing.T) {
	db := openTestDB(t)
	seats := NewSeatRepo(db)
	bookings := NewBookingRepo(db)
	events := NewEventRepo(db, seats)
	users := NewUserRepo(db)
	store := NewReservationStore(db, seats, bookings)

	const totalSeats = 10
	const claimants = 8
	ev := createTestEvent(t, events, totalSeats)
	userIDs := make([]uint64, claimants)
	for i := range userIDs {
		userIDs[i] = createTestUser(t, users)
	}

	// Every claimant races for every seat.
	type win struct {
		user uint64
		seat uint32
	}
	var mu sync.Mutex
	var wins []win
	var wg sync.WaitGroup
	wg.Add(claimants)
	for i := 0; i < claimants; i++ {
		go func(uid uint64) {
			defer wg.Done()
			for n := uint32(1); n <= totalSeats; n++ {
				_, claimed, err := store.ClaimAndRecord(context.Background(), ev.ID, uid, n)
				assert.NoError(t, err)
				if claimed {
					mu.Lock()
					wins = append(wins, win{user: uid, seat: n})
					mu.Unlock()
				}
			}
		}(userIDs[i])
	}
	wg.Wait()

	// Each seat was won exactly once.
	bySeat := make(map[uint32]int)
	for _, w := range wins {
		bySeat[w.seat]++
	}
	require.Len(t, bySeat, totalSeats)
	for seat, count := range bySeat {
		assert.Equalf(t, 1, count, "seat %d claimed %d times", seat, count)
	}

	// Conservation: booked seats and ledger entries agree.
	ctx := context.Background()
	booked, err := seats.CountBooked(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(totalSeats), booked)
	ledger, err := bookings.CountByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, booked, ledger)

	snapshot, err := seats.Snapshot(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, snapshot, totalSeats)
	for _, s := range snapshot {
		assert.Truef(t, s.Booked, "seat %d should be booked", s.SeatNumber)
	}
}

func TestEventCreateProvisionsInventory(t *testing.T) {
	db := openTestDB(t)
	seats := NewSeatRepo(db)
	events := NewEventRepo(db, seats)

	ev := createTestEvent(t, events, 7)
	require.NotZero(t, ev.ID)
	require.False(t, ev.CreatedAt.IsZero())

	snapshot, err := seats.Snapshot(context.Background(), ev.ID)
	require.NoError(t, err)
	require.Len(t, snapshot, 7)
	for i, s := range snapshot {
		assert.Equal(t, uint32(i+1), s.SeatNumber)
		assert.False(t, s.Booked)
	}
}

func TestEventCreateProvisionsAcrossInsertBatches(t *testing.T) {
	db := openTestDB(t)
	seats := NewSeatRepo(db)
	events := NewEventRepo(db, seats)

	// 1250 rows span multiple INSERT statements; the inventory must
	// still come out complete, contiguous and all free.
	const total = 1250
	ev := createTestEvent(t, events, total)

	snapshot, err := seats.Snapshot(context.Background(), ev.ID)
	require.NoError(t, err)
	require.Len(t, snapshot, total)
	for i, s := range snapshot {
		require.Equal(t, uint32(i+1), s.SeatNumber)
		require.False(t, s.Booked)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)

	uid := createTestUser(t, users)
	ctx := context.Background()

	hash := fmt.Sprintf("%064d", time.Now().UnixNano())
	require.NoError(t, tokens.StoreRefresh(ctx, uid, hash, time.Now().UTC().Add(time.Hour)))

	got, err := tokens.ValidateRefresh(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	// An expired token reads as no valid token.
	expired := fmt.Sprintf("%063de", time.Now().UnixNano())
	require.NoError(t, tokens.StoreRefresh(ctx, uid, expired, time.Now().UTC().Add(-time.Hour)))
	_, err = tokens.ValidateRefresh(ctx, expired)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Revocation by hash invalidates exactly that token.
	require.NoError(t, tokens.RevokeByHash(ctx, hash))
	_, err = tokens.ValidateRefresh(ctx, hash)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Revoke-all sweeps any remaining active tokens for the user.
	other := fmt.Sprintf("%063dx", time.Now().UnixNano())
	require.NoError(t, tokens.StoreRefresh(ctx, uid, other, time.Now().UTC().Add(time.Hour)))
	require.NoError(t, tokens.RevokeAllForUser(ctx, uid))
	_, err = tokens.ValidateRefresh(ctx, other)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
