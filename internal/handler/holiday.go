package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/holiday"
)

// HolidayHandler lets staff maintain the holiday calendar used by the
// peak-time rule.
type HolidayHandler struct {
	Calendar *holiday.Calendar
	Log      *zap.Logger
}

type holidayRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

func (h *HolidayHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Calendar.List())
}

// Set handles PUT /v1/holidays/:date where date is YYYY-MM-DD.
func (h *HolidayHandler) Set(c echo.Context) error {
	day, err := h.Calendar.ParseDate(c.Param("date"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req holidayRequest
	if err := bind(c, &req); err != nil {
		return fail(c, h.Log, err)
	}
	h.Calendar.Set(day, req.Name)
	h.Log.Info("holiday set", zap.String("date", c.Param("date")), zap.String("name", req.Name))
	return c.JSON(http.StatusOK, holiday.Holiday{Date: day.Format("2006-01-02"), Name: req.Name})
}

func (h *HolidayHandler) Unset(c echo.Context) error {
	day, err := h.Calendar.ParseDate(c.Param("date"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := h.Calendar.Unset(day); err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info("holiday removed", zap.String("date", c.Param("date")))
	return c.NoContent(http.StatusNoContent)
}
