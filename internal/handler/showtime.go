package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/model"
	"github.com/iliyamo/cineplex-booking/internal/service"
)

// ShowtimeHandler serves showtime browsing and the staff scheduling API.
type ShowtimeHandler struct {
	Scheduler *service.Scheduler
	Log       *zap.Logger
}

func NewShowtimeHandler(s *service.Scheduler, log *zap.Logger) *ShowtimeHandler {
	if s == nil {
		panic("nil scheduler passed to NewShowtimeHandler")
	}
	return &ShowtimeHandler{Scheduler: s, Log: log}
}

type createShowtimeRequest struct {
	MovieID      string    `json:"movie_id" validate:"required"`
	CineplexID   string    `json:"cineplex_id" validate:"required"`
	CinemaID     string    `json:"cinema_id" validate:"required"`
	Language     string    `json:"language" validate:"required,max=64"`
	Subtitles    []string  `json:"subtitles" validate:"omitempty,dive,required,max=64"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	IsPreview    bool      `json:"is_preview"`
	NoFreePasses bool      `json:"no_free_passes"`
}

type rescheduleRequest struct {
	CinemaID     string    `json:"cinema_id"`
	StartTime    time.Time `json:"start_time"`
	Language     string    `json:"language" validate:"max=64"`
	Subtitles    *[]string `json:"subtitles"`
	IsPreview    *bool     `json:"is_preview"`
	NoFreePasses *bool     `json:"no_free_passes"`
}

func (h *ShowtimeHandler) view(st *model.Showtime) showtimeView {
	return newShowtimeView(st, h.Scheduler.Status(st))
}

func (h *ShowtimeHandler) views(list []*model.Showtime) []showtimeView {
	out := make([]showtimeView, len(list))
	for i, st := range list {
		out[i] = h.view(st)
	}
	return out
}

// Create handles POST /v1/showtimes.
func (h *ShowtimeHandler) Create(c echo.Context) error {
	var req createShowtimeRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	st, err := h.Scheduler.CreateShowtime(c.Request().Context(), service.CreateShowtimeInput{
		MovieID:      req.MovieID,
		CineplexID:   req.CineplexID,
		CinemaID:     req.CinemaID,
		Language:     req.Language,
		Subtitles:    req.Subtitles,
		StartTime:    req.StartTime,
		IsPreview:    req.IsPreview,
		NoFreePasses: req.NoFreePasses,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, h.view(st))
}

// Reschedule handles PUT /v1/showtimes/:id. Omitted fields are unchanged.
func (h *ShowtimeHandler) Reschedule(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req rescheduleRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	st, err := h.Scheduler.RescheduleShowtime(c.Request().Context(), id, service.RescheduleInput{
		CinemaID:     req.CinemaID,
		StartTime:    req.StartTime,
		Language:     req.Language,
		Subtitles:    req.Subtitles,
		IsPreview:    req.IsPreview,
		NoFreePasses: req.NoFreePasses,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.view(st))
}

// Cancel handles POST /v1/showtimes/:id/cancel.
func (h *ShowtimeHandler) Cancel(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	st, err := h.Scheduler.CancelShowtime(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.view(st))
}

func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	st, err := h.Scheduler.Showtime(id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.view(st))
}

func (h *ShowtimeHandler) TicketTypes(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	types, err := h.Scheduler.AvailableTicketTypes(id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime_id": id, "ticket_types": types})
}

func (h *ShowtimeHandler) Seats(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	seats, err := h.Scheduler.SeatMap(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime_id": id, "seats": seats})
}

// ByMovie handles GET /v1/cineplexes/:cineplex_id/movies/:movie_id/showtimes.
func (h *ShowtimeHandler) ByMovie(c echo.Context) error {
	list, err := h.Scheduler.ShowtimesByCineplexAndMovie(c.Param("cineplex_id"), c.Param("movie_id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.views(list))
}

// ByCinema handles GET /v1/cineplexes/:cineplex_id/cinemas/:cinema_id/showtimes.
func (h *ShowtimeHandler) ByCinema(c echo.Context) error {
	list, err := h.Scheduler.ShowtimesByCineplexAndCinema(c.Param("cineplex_id"), c.Param("cinema_id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.views(list))
}
