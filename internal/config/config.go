// Package config loads runtime configuration from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every section of the runtime configuration.
type Config struct {
	App       AppConfig       `envconfig:"APP"`
	Log       LogConfig       `envconfig:"LOG"`
	JWT       JWTConfig       `envconfig:"JWT"`
	Booking   BookingConfig   `envconfig:"BOOKING"`
	Peak      PeakConfig      `envconfig:"PEAK"`
	Lock      LockConfig      `envconfig:"LOCK"`
	DB        DBConfig        `envconfig:"DB"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	RabbitMQ  RabbitMQConfig  `envconfig:"RABBITMQ"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	SeatCache SeatCacheConfig `envconfig:"SEAT_CACHE"`
}

type AppConfig struct {
	Env  string `default:"dev"`
	Port string `default:"8080"`
}

type LogConfig struct {
	Level       string `default:"info"`
	Development bool
}

type JWTConfig struct {
	Secret string `required:"true"`
}

// BookingConfig carries the scheduling and pricing parameters.
type BookingConfig struct {
	BufferMinutes  int     `split_words:"true" default:"10"`
	CutoffMinutes  int     `split_words:"true" default:"30"`
	MaxSeats       int     `split_words:"true" default:"10"`
	SurchargeCents int64   `split_words:"true" default:"100"`
	TaxRate        float64 `split_words:"true" default:"0.07"`
	CatalogFile    string  `split_words:"true"`
	// Holidays are "YYYY-MM-DD" or "YYYY-MM-DD=Name" entries.
	Holidays []string
	Timezone string `default:"UTC"`
}

func (b BookingConfig) Buffer() time.Duration { return time.Duration(b.BufferMinutes) * time.Minute }
func (b BookingConfig) Cutoff() time.Duration { return time.Duration(b.CutoffMinutes) * time.Minute }

// Location resolves Timezone; holidays and peak hours are judged in it.
func (b BookingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: BOOKING_TIMEZONE %q: %w", b.Timezone, err)
	}
	return loc, nil
}

type PeakConfig struct {
	Days             []string `default:"Fri,Sat,Sun"`
	WeekdayStartHour int      `split_words:"true" default:"18"`
}

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type LockConfig struct {
	Backend string        `default:"local"`
	TTL     time.Duration `default:"10s"`
}

// DBConfig points at the MySQL booking archive. An empty Host disables it.
type DBConfig struct {
	User string `default:"root"`
	Pass string
	Host string
	Port string `default:"3306"`
	Name string `default:"cineplex"`
}

func (d DBConfig) Enabled() bool { return d.Host != "" }

// RabbitMQConfig configures domain event delivery. An empty URL disables it.
type RabbitMQConfig struct {
	URL           string
	BookingQueue  string `split_words:"true" default:"booking.confirmed"`
	ShowtimeQueue string `split_words:"true" default:"showtime.cancelled"`
	Consume       bool
}

type SeatCacheConfig struct {
	Enabled bool          `default:"true"`
	TTL     time.Duration `default:"30s"`
}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.RateLimit.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	b := c.Booking
	switch {
	case strings.TrimSpace(c.JWT.Secret) == "":
		return fmt.Errorf("config: JWT_SECRET is required")
	case b.BufferMinutes < 0:
		return fmt.Errorf("config: BOOKING_BUFFER_MINUTES must not be negative")
	case b.CutoffMinutes < 0:
		return fmt.Errorf("config: BOOKING_CUTOFF_MINUTES must not be negative")
	case b.MaxSeats <= 0:
		return fmt.Errorf("config: BOOKING_MAX_SEATS must be positive")
	case b.SurchargeCents < 0:
		return fmt.Errorf("config: BOOKING_SURCHARGE_CENTS must not be negative")
	case b.TaxRate < 0 || b.TaxRate >= 1:
		return fmt.Errorf("config: BOOKING_TAX_RATE must be in [0, 1)")
	case c.Peak.WeekdayStartHour < 0 || c.Peak.WeekdayStartHour > 23:
		return fmt.Errorf("config: PEAK_WEEKDAY_START_HOUR must be 0-23")
	}
	if _, err := b.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.Lock.Backend) {
	case LockBackendLocal:
	case LockBackendRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("config: LOCK_BACKEND=redis needs REDIS_ADDR or REDIS_HOST")
		}
	default:
		return fmt.Errorf("config: unknown LOCK_BACKEND %q", c.Lock.Backend)
	}
	return nil
}
