package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Minute, cfg.Booking.Buffer())
	assert.Equal(t, 30*time.Minute, cfg.Booking.Cutoff())
	assert.Equal(t, int64(100), cfg.Booking.SurchargeCents)
	assert.InDelta(t, 0.07, cfg.Booking.TaxRate, 1e-9)
	assert.Equal(t, []string{"Fri", "Sat", "Sun"}, cfg.Peak.Days)
	assert.Equal(t, 18, cfg.Peak.WeekdayStartHour)
	assert.Equal(t, LockBackendLocal, cfg.Lock.Backend)
	assert.False(t, cfg.DB.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "booking.confirmed", cfg.RabbitMQ.BookingQueue)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.TTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("BOOKING_BUFFER_MINUTES", "15")
	t.Setenv("BOOKING_HOLIDAYS", "2026-12-25=Christmas,2026-01-01")
	t.Setenv("BOOKING_TIMEZONE", "Asia/Singapore")
	t.Setenv("PEAK_DAYS", "Sat,Sun")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "30s")
	t.Setenv("RABBITMQ_BOOKING_QUEUE", "bookings")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 15*time.Minute, cfg.Booking.Buffer())
	assert.Equal(t, []string{"2026-12-25=Christmas", "2026-01-01"}, cfg.Booking.Holidays)
	assert.Equal(t, []string{"Sat", "Sun"}, cfg.Peak.Days)
	assert.Equal(t, "cache:6379", cfg.Redis.Address())
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.TTL, "ttl is raised to five refill intervals")
	assert.Equal(t, "bookings", cfg.RabbitMQ.BookingQueue)

	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Singapore", loc.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {"JWT_SECRET": ""},
		"negative buffer":      {"BOOKING_BUFFER_MINUTES": "-5"},
		"zero seats":           {"BOOKING_MAX_SEATS": "0"},
		"tax rate too high":    {"BOOKING_TAX_RATE": "1.5"},
		"bad hour":             {"PEAK_WEEKDAY_START_HOUR": "25"},
		"unknown zone":         {"BOOKING_TIMEZONE": "Mars/Olympus"},
		"redis lock w/o redis": {"LOCK_BACKEND": "redis"},
		"unknown lock backend": {"LOCK_BACKEND": "zookeeper"},
		"not a number":         {"BOOKING_CUTOFF_MINUTES": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
