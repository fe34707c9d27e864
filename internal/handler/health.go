package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness plus the state of the optional backends.
// A nil backend is reported as "disabled".
type HealthHandler struct {
	Redis redis.Cmdable
	DB    *sql.DB
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
	defer cancel()

	status := http.StatusOK
	body := echo.Map{"status": "ok"}
	check := func(name string, enabled bool, ping func() error) {
		switch {
		case !enabled:
			body[name] = "disabled"
		case ping() != nil:
			body[name] = "down"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		default:
			body[name] = "up"
		}
	}
	check("redis", h.Redis != nil, func() error { return h.Redis.Ping(ctx).Err() })
	check("mysql", h.DB != nil, func() error { return h.DB.PingContext(ctx) })
	return c.JSON(status, body)
}
