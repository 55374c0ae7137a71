package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// maxEventSeats bounds the inventory one event may provision.  Seats
// are materialized as rows at creation time, so the bound keeps a
// single request from seeding an absurd number of rows.
const maxEventSeats = 100_000

// EventHandler serves event provisioning and the public browse
// surface (event list, event details, seat map).
type EventHandler struct {
	Events *repository.EventRepo
	Seats  *repository.SeatRepo
}

// NewEventHandler constructs an EventHandler.  All dependencies must
// be non-nil.
func NewEventHandler(events *repository.EventRepo, seats *repository.SeatRepo) *EventHandler {
	if events == nil || seats == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Seats: seats}
}

type createEventReq struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required,max=255"`
	TotalSeats  uint32    `json:"total_seats"`
}

type eventResp struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	TotalSeats  uint32    `json:"total_seats"`
}

func toEventResp(ev model.Event) eventResp {
	return eventResp{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Date:        ev.Date,
		Location:    ev.Location,
		TotalSeats:  ev.TotalSeats,
	}
}

// CreateEvent handles POST /v1/events.  It validates the payload,
// rejects seat counts outside 1..maxEventSeats, and creates the event
// together with its full seat inventory in one transaction.
// Restricted to ORGANIZER users by middleware.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.TotalSeats < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be at least 1"})
	}
	if req.TotalSeats > maxEventSeats {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats exceeds the supported maximum"})
	}
	ev := model.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		TotalSeats:  req.TotalSeats,
	}
	if err := h.Events.Create(c.Request().Context(), &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventResp(ev))
}

// ListEvents handles GET /v1/events and returns all events ordered by
// date.
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.Events.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	items := make([]eventResp, 0, len(events))
	for _, ev := range events {
		items = append(items, toEventResp(ev))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.Events.GetByID(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toEventResp(ev))
}

// SeatMap handles GET /v1/events/:id/seats.  It returns the ordered
// (seat_number, booked) projection for display.  The snapshot is a
// consistent read but is not serialized with in-flight reservations;
// a seat shown free may already be claimed by the time the client
// acts on it.
func (h *EventHandler) SeatMap(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if _, err := h.Events.GetByID(c.Request().Context(), eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.Snapshot(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}
