package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
	"github.com/iliyamo/cineplex-booking/internal/model"
	"github.com/iliyamo/cineplex-booking/internal/service"
)

// BookingHandler serves the customer booking flow. A booking is visible
// only to the customer who opened it; others get 404.
type BookingHandler struct {
	Workflow *service.Workflow
	Log      *zap.Logger
}

func NewBookingHandler(w *service.Workflow, log *zap.Logger) *BookingHandler {
	if w == nil {
		panic("nil workflow passed to NewBookingHandler")
	}
	return &BookingHandler{Workflow: w, Log: log}
}

type ticketTypesRequest struct {
	Tickets map[model.TicketType]int `json:"tickets" validate:"required,min=1"`
}

type seatsRequest struct {
	Seats []model.SeatID `json:"seats" validate:"required,min=1"`
}

type paymentRequest struct {
	Status model.PaymentStatus `json:"status" validate:"required,oneof=PENDING ACCEPTED REJECTED"`
}

func (h *BookingHandler) unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// owned resolves the path booking and checks it belongs to the caller.
func (h *BookingHandler) owned(c echo.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := pathUUID(c, "id")
	if err != nil {
		return uuid.Nil, err
	}
	b, err := h.Workflow.Booking(id)
	if err != nil {
		return uuid.Nil, err
	}
	if b.UserID != userID {
		return uuid.Nil, apperr.NotFound("booking", "booking %s not found", id)
	}
	return id, nil
}

// do runs one workflow step against an owned booking and renders it.
func (h *BookingHandler) do(c echo.Context, step func(id, userID uuid.UUID) (*model.Booking, error)) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.unauthorized(c)
	}
	id, err := h.owned(c, userID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	b, err := step(id, userID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookingView(b))
}

// Create handles POST /v1/showtimes/:id/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.unauthorized(c)
	}
	showtimeID, err := pathUUID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	b, err := h.Workflow.CreateBooking(c.Request().Context(), showtimeID, userID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, newBookingView(b))
}

func (h *BookingHandler) Get(c echo.Context) error {
	return h.do(c, func(id, _ uuid.UUID) (*model.Booking, error) {
		return h.Workflow.Booking(id)
	})
}

// SelectTicketTypes handles PUT /v1/bookings/:id/ticket-types.
func (h *BookingHandler) SelectTicketTypes(c echo.Context) error {
	var req ticketTypesRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	return h.do(c, func(id, _ uuid.UUID) (*model.Booking, error) {
		return h.Workflow.SelectTicketTypes(c.Request().Context(), id, req.Tickets)
	})
}

// SelectSeats handles PUT /v1/bookings/:id/seats with labels like "B7".
func (h *BookingHandler) SelectSeats(c echo.Context) error {
	var req seatsRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	return h.do(c, func(id, _ uuid.UUID) (*model.Booking, error) {
		return h.Workflow.SelectSeats(c.Request().Context(), id, req.Seats)
	})
}

// AttachPayment handles POST /v1/bookings/:id/payment.
func (h *BookingHandler) AttachPayment(c echo.Context) error {
	var req paymentRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	return h.do(c, func(id, _ uuid.UUID) (*model.Booking, error) {
		return h.Workflow.AttachPayment(c.Request().Context(), id, req.Status)
	})
}

func (h *BookingHandler) Confirm(c echo.Context) error {
	return h.do(c, func(id, userID uuid.UUID) (*model.Booking, error) {
		return h.Workflow.ConfirmBooking(c.Request().Context(), id, userID)
	})
}

func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.do(c, func(id, _ uuid.UUID) (*model.Booking, error) {
		return h.Workflow.CancelBooking(c.Request().Context(), id)
	})
}

// Quote handles GET /v1/bookings/:id/quote.
func (h *BookingHandler) Quote(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.unauthorized(c)
	}
	id, err := h.owned(c, userID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	q, err := h.Workflow.Quote(id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Mine handles GET /v1/my-bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.unauthorized(c)
	}
	list := h.Workflow.UserBookings(userID)
	out := make([]bookingView, len(list))
	for i, b := range list {
		out[i] = newBookingView(b)
	}
	return c.JSON(http.StatusOK, out)
}
