package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

// BookingLister is the read side of the booking ledger needed by this
// handler.  Implemented by repository.BookingRepo.
type BookingLister interface {
	ListByUser(ctx context.Context, userID uint64) ([]repository.BookingDetail, error)
}

// ReservationHandler exposes the reservation coordinator and the
// booking history over HTTP.  JWT authentication has already been
// performed by middleware; the handler extracts the caller identity
// from the context and passes it explicitly into the coordinator.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Bookings     BookingLister
	Events       service.EventStore
	Users        service.UserStore
	// Publish emits the post-commit broker event.  Overridable in
	// tests; defaults to queue.PublishSeatsReserved.
	Publish func(ctx context.Context, ev queue.SeatsReservedEvent) error
}

// NewReservationHandler constructs a ReservationHandler.  All
// dependencies must be non-nil.
func NewReservationHandler(res *service.ReservationService, bookings BookingLister, events service.EventStore, users service.UserStore) *ReservationHandler {
	if res == nil || bookings == nil || events == nil || users == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Reservations: res,
		Bookings:     bookings,
		Events:       events,
		Users:        users,
		Publish:      queue.PublishSeatsReserved,
	}
}

// Reserve handles POST /v1/events/:id/reserve.  The body carries a
// "seats" array of seat numbers.  The response always states exactly
// which seats were granted and which were denied; partial success is
// a 200, not an error.  A storage failure mid-request returns 503
// with the partial outcome, and the whole request is safe to retry.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		Seats []uint32 `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	outcome, err := h.Reservations.Reserve(c.Request().Context(), eventID, userID, body.Seats)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, service.ErrUnauthorized):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		case errors.Is(err, service.ErrStorageUnavailable):
			// Seats committed before the failure stay granted; report
			// them so the client knows what it holds before retrying.
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"error":   "storage unavailable, retry the request",
				"granted": outcome.Granted,
				"denied":  outcome.Denied,
			})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
		}
	}

	if len(outcome.Granted) > 0 {
		h.publishReserved(eventID, userID, outcome)
	}
	return c.JSON(http.StatusOK, outcome)
}

// publishReserved emits a booking.recorded event in the background.
// Publishing is best effort: the reservation has already committed
// and a broker outage must not fail the request.
func (h *ReservationHandler) publishReserved(eventID, userID uint64, outcome service.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	ev, errEv := h.Events.GetByID(ctx, eventID)
	u, errU := h.Users.GetByID(ctx, userID)
	cancel()
	if errEv != nil || errU != nil {
		log.Printf("reserve: skipping event publish, lookup failed (event=%v user=%v)", errEv, errU)
		return
	}
	msg := queue.SeatsReservedEvent{
		UserID:     userID,
		Username:   u.Username,
		EventID:    eventID,
		EventTitle: ev.Title,
		ReservedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, g := range outcome.Granted {
		msg.SeatNumbers = append(msg.SeatNumbers, g.SeatNumber)
		msg.BookingIDs = append(msg.BookingIDs, g.BookingID)
	}
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = h.Publish(pctx, msg)
	}()
}

// MyBookings handles GET /v1/my-bookings.  It returns the caller's
// booking history joined with event and seat details, newest first.
func (h *ReservationHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}
