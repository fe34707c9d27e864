package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/cache"
	"github.com/iliyamo/cineplex-booking/internal/config"
	"github.com/iliyamo/cineplex-booking/internal/database"
	"github.com/iliyamo/cineplex-booking/internal/handler"
	"github.com/iliyamo/cineplex-booking/internal/holiday"
	"github.com/iliyamo/cineplex-booking/internal/lock"
	"github.com/iliyamo/cineplex-booking/internal/logger"
	"github.com/iliyamo/cineplex-booking/internal/middleware"
	"github.com/iliyamo/cineplex-booking/internal/pricing"
	"github.com/iliyamo/cineplex-booking/internal/queue"
	"github.com/iliyamo/cineplex-booking/internal/repository"
	"github.com/iliyamo/cineplex-booking/internal/router"
	"github.com/iliyamo/cineplex-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}
	store := repository.NewStore()
	catalog, err := repository.LoadCatalog(store, cfg.Booking.CatalogFile)
	if err != nil {
		return err
	}
	log.Info("catalog loaded",
		zap.Int("movies", len(catalog.Movies)),
		zap.Int("cineplexes", len(catalog.Cineplexes)),
		zap.Int("cinemas", len(catalog.Cinemas)),
	)

	cal := holiday.NewCalendar(loc)
	if err := cal.Load(cfg.Booking.Holidays); err != nil {
		return fmt.Errorf("BOOKING_HOLIDAYS: %w", err)
	}

	deps := service.Deps{
		Store:   store,
		Locker:  lock.NewLocalLocker(),
		Pricing: pricing.NewEngine(pricing.DefaultTable(cfg.Booking.SurchargeCents), cfg.Booking.TaxRate),
		Peak: holiday.PeakRule{
			Calendar:        cal,
			Days:            holiday.ParseWeekdays(cfg.Peak.Days),
			EveningFromHour: cfg.Peak.WeekdayStartHour,
			Location:        loc,
		},
		Log: log,
	}
	health := &handler.HealthHandler{}

	redisLocks := strings.EqualFold(cfg.Lock.Backend, config.LockBackendRedis)
	rdb := config.NewRedisClient(ctx, cfg.Redis)
	switch {
	case rdb != nil:
		defer rdb.Close()
		health.Redis = rdb
		if cfg.SeatCache.Enabled {
			deps.Seats = cache.NewSeatMapCache(rdb, cfg.SeatCache.TTL)
		}
		if redisLocks {
			deps.Locker = lock.NewRedisLocker(rdb, cfg.Lock.TTL, log)
		}
		log.Info("redis connected", zap.String("addr", cfg.Redis.Address()), zap.Bool("redis_locks", redisLocks))
	case redisLocks:
		return fmt.Errorf("redis %s unreachable and LOCK_BACKEND=redis", cfg.Redis.Address())
	case cfg.Redis.Enabled():
		log.Warn("redis unreachable; seat cache and rate limiting disabled", zap.String("addr", cfg.Redis.Address()))
	}

	if cfg.DB.Enabled() {
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("open booking archive: %w", err)
		}
		defer db.Close()
		archive := repository.NewBookingArchive(db)
		if err := archive.EnsureSchema(ctx); err != nil {
			return err
		}
		deps.Archive = archive
		health.DB = db
		log.Info("booking archive ready", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))
	}

	if mq := cfg.RabbitMQ; mq.URL != "" {
		deps.Events = queue.NewPublisher(mq.URL, mq.BookingQueue, mq.ShowtimeQueue, log)
		if mq.Consume {
			consumer := queue.NewConsumer(mq.URL, mq.BookingQueue, mq.ShowtimeQueue, log)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("event consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	sched, wf := service.New(service.Config{
		Buffer:             cfg.Booking.Buffer(),
		Cutoff:             cfg.Booking.Cutoff(),
		MaxSeatsPerBooking: cfg.Booking.MaxSeats,
	}, deps)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover(), echomw.RequestID(), middleware.RequestLogger(log))
	router.RegisterRoutes(e, router.Handlers{
		Health:    health,
		Showtimes: handler.NewShowtimeHandler(sched, log),
		Bookings:  handler.NewBookingHandler(wf, log),
		Holidays:  &handler.HolidayHandler{Calendar: cal, Log: log},
	}, cfg.JWT.Secret, middleware.NewTokenBucket(cfg.RateLimit, rdb, log))

	errc := make(chan error, 1)
	go func() { errc <- e.Start(":" + cfg.App.Port) }()
	log.Info("listening", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
