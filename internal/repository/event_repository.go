package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// EventRepo provides persistence for events and drives seat
// provisioning.  Creating an event and seeding its inventory happen
// in one transaction so a partially seeded event can never be
// observed.
type EventRepo struct {
	db    *sql.DB
	seats *SeatRepo
}

// NewEventRepo returns an EventRepo bound to the given database.  The
// SeatRepo is used to seed the inventory during Create.
func NewEventRepo(db *sql.DB, seats *SeatRepo) *EventRepo {
	return &EventRepo{db: db, seats: seats}
}

// Create inserts the event row and provisions seats 1..TotalSeats in
// a single transaction.  The generated ID and creation timestamp are
// populated on the passed event.  Callers must validate TotalSeats >= 1
// before calling.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const ins = `INSERT INTO events (title, description, date, location, total_seats) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, ev.Title, ev.Description, ev.Date.UTC(), ev.Location, ev.TotalSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	if err := r.seats.CreateBulkTx(ctx, tx, ev.ID, ev.TotalSeats); err != nil {
		return err
	}
	// Query back the row to populate the DB-assigned timestamp.
	const sel = `SELECT created_at FROM events WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, ev.ID).Scan(&ev.CreatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a single event.  ErrEventNotFound is returned when
// no row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	const q = `SELECT id, title, description, date, location, total_seats, created_at FROM events WHERE id = ? LIMIT 1`
	var ev model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ev.ID, &ev.Title, &ev.Description, &ev.Date, &ev.Location, &ev.TotalSeats, &ev.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return ev, err
}

// List returns all events ordered by date ascending for the public
// browse endpoint.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT id, title, description, date, location, total_seats, created_at FROM events ORDER BY date`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Date, &ev.Location, &ev.TotalSeats, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
