// Package router maps the HTTP API onto the handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cineplex-booking/internal/handler"
	"github.com/iliyamo/cineplex-booking/internal/middleware"
)

// Handlers groups everything the routes dispatch to.
type Handlers struct {
	Health    *handler.HealthHandler
	Showtimes *handler.ShowtimeHandler
	Bookings  *handler.BookingHandler
	Holidays  *handler.HolidayHandler
}

// RegisterRoutes registers the public browse routes, the staff scheduling
// routes and the customer booking routes. The extra middleware (typically
// the rate limiter) wraps every /v1 route.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, extra ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	v1 := e.Group("/v1", extra...)
	v1.GET("/cineplexes/:cineplex_id/movies/:movie_id/showtimes", h.Showtimes.ByMovie)
	v1.GET("/cineplexes/:cineplex_id/cinemas/:cinema_id/showtimes", h.Showtimes.ByCinema)
	v1.GET("/showtimes/:id", h.Showtimes.Get)
	v1.GET("/showtimes/:id/ticket-types", h.Showtimes.TicketTypes)
	v1.GET("/showtimes/:id/seats", h.Showtimes.Seats)

	staff := v1.Group("", middleware.JWTAuth(jwtSecret), middleware.RequireRole(middleware.RoleStaff))
	staff.POST("/showtimes", h.Showtimes.Create)
	staff.PUT("/showtimes/:id", h.Showtimes.Reschedule)
	staff.POST("/showtimes/:id/cancel", h.Showtimes.Cancel)
	staff.GET("/holidays", h.Holidays.List)
	staff.PUT("/holidays/:date", h.Holidays.Set)
	staff.DELETE("/holidays/:date", h.Holidays.Unset)

	customer := v1.Group("", middleware.JWTAuth(jwtSecret), middleware.RequireRole(middleware.RoleCustomer))
	customer.POST("/showtimes/:id/bookings", h.Bookings.Create)
	customer.GET("/bookings/:id", h.Bookings.Get)
	customer.PUT("/bookings/:id/ticket-types", h.Bookings.SelectTicketTypes)
	customer.PUT("/bookings/:id/seats", h.Bookings.SelectSeats)
	customer.POST("/bookings/:id/payment", h.Bookings.AttachPayment)
	customer.GET("/bookings/:id/quote", h.Bookings.Quote)
	customer.POST("/bookings/:id/confirm", h.Bookings.Confirm)
	customer.POST("/bookings/:id/cancel", h.Bookings.Cancel)
	customer.GET("/my-bookings", h.Bookings.Mine)
}
