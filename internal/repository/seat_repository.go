package repository // repository for seat inventory persistence

import (
	"context"      // context for managing deadlines
	"database/sql" // sql provides DB interfaces

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// SeatRepo encapsulates database operations on the seats table.  The
// seats table is the only shared mutable state in the system; the one
// rule observed here is that the booked flag is flipped exclusively
// through the conditional update in ClaimTx, never via a separate
// read-then-write.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// seatInsertBatch bounds how many rows one multi-row INSERT carries,
// keeping provisioning statements within max_allowed_packet and
// memory proportional to the batch, not the inventory.
const seatInsertBatch = 500

// CreateBulkTx seeds the inventory for an event inside the provided
// transaction: one row per seat number 1..total, all free.  Rows are
// inserted in batches, but all batches share the caller's transaction
// so either the full inventory exists or none of it does.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, eventID uint64, total uint32) error {
	for start := uint64(1); start <= uint64(total); start += seatInsertBatch {
		end := start + seatInsertBatch - 1
		if end > uint64(total) {
			end = uint64(total)
		}
		query := `INSERT INTO seats (event_id, seat_number, booked) VALUES `
		args := make([]interface{}, 0, (end-start+1)*2)
		for n := start; n <= end; n++ {
			if n > start {
				query += ","
			}
			query += "(?, ?, 0)"
			args = append(args, eventID, n)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// ClaimTx attempts the atomic free->booked transition for one seat
// within the provided transaction.  The decision and the mutation are
// a single conditional UPDATE: it succeeds only if the row currently
// has booked=0, so two concurrent claimants can never both win.  It
// returns the seat id and claimed=true when this call caused the
// transition.  A seat number with no row (out of range) reports
// claimed=false with no error.
func (r *SeatRepo) ClaimTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatNumber uint32) (uint64, bool, error) {
	const upd = `UPDATE seats SET booked = 1 WHERE event_id = ? AND seat_number = ? AND booked = 0`
	res, err := tx.ExecContext(ctx, upd, eventID, seatNumber)
	if err != nil {
		return 0, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		// Already booked, or no such seat for this event.
		return 0, false, nil
	}
	// Read the seat id back in the same transaction for the ledger insert.
	const sel = `SELECT id FROM seats WHERE event_id = ? AND seat_number = ?`
	var seatID uint64
	if err := tx.QueryRowContext(ctx, sel, eventID, seatNumber).Scan(&seatID); err != nil {
		return 0, false, err
	}
	return seatID, true, nil
}

// Snapshot returns the ordered (seat_number, booked) projection for
// an event, used by the public seat map.  It is a plain read and is
// not serialized with in-flight reservations.
func (r *SeatRepo) Snapshot(ctx context.Context, eventID uint64) ([]model.SeatStatus, error) {
	const q = `SELECT seat_number, booked FROM seats WHERE event_id = ? ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := make([]model.SeatStatus, 0)
	for rows.Next() {
		var s model.SeatStatus
		if err := rows.Scan(&s.SeatNumber, &s.Booked); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// CountBooked returns how many seats of an event are currently
// booked.  Used together with BookingRepo.CountByEvent to verify the
// conservation invariant (one booking per booked seat).
func (r *SeatRepo) CountBooked(ctx context.Context, eventID uint64) (uint32, error) {
	const q = `SELECT COUNT(*) FROM seats WHERE event_id = ? AND booked = 1`
	var n uint32
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n)
	return n, err
}
