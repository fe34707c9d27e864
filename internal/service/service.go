// Package service holds the showtime scheduler and the booking workflow.
// Both read and write through the shared repository.Store; every
// check-then-commit section runs under a lock.Locker key so concurrent
// requests cannot both pass a check and both commit.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/lock"
	"github.com/iliyamo/cineplex-booking/internal/model"
	"github.com/iliyamo/cineplex-booking/internal/pricing"
	"github.com/iliyamo/cineplex-booking/internal/queue"
	"github.com/iliyamo/cineplex-booking/internal/repository"
)

// Clock is the wall-clock source for cutoff checks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// PeakPredicate tells whether a showtime start is in peak time.
type PeakPredicate interface {
	IsPeak(t time.Time) bool
}

// EventPublisher receives domain events after their change has committed.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	ShowtimeCancelled(ctx context.Context, ev queue.ShowtimeCancelledEvent) error
}

// SeatCache holds seat-map snapshots outside the store.
type SeatCache interface {
	Get(ctx context.Context, showtimeID string) ([]model.SeatState, bool, error)
	Set(ctx context.Context, showtimeID string, seats []model.SeatState) error
	Invalidate(ctx context.Context, showtimeID string) error
}

// BookingArchive durably records confirmed bookings. It runs inside the
// confirmation unit of work; a failure aborts the confirmation.
type BookingArchive interface {
	SaveConfirmed(ctx context.Context, rec repository.ArchivedBooking) error
}

// Config carries the engine's business parameters.
type Config struct {
	Buffer             time.Duration // cleaning time added after each screening
	Cutoff             time.Duration // changes and bookings close this long before start
	MaxSeatsPerBooking int
}

// Deps are the collaborators of the engine. Store, Locker, Pricing and
// Peak are required; the rest are optional.
type Deps struct {
	Store   *repository.Store
	Locker  lock.Locker
	Pricing *pricing.Engine
	Peak    PeakPredicate
	Clock   Clock
	Events  EventPublisher
	Seats   SeatCache
	Archive BookingArchive
	Log     *zap.Logger
}

// New builds the scheduler and the booking workflow and wires the
// scheduler's cascading cancellation to the workflow.
func New(cfg Config, d Deps) (*Scheduler, *Workflow) {
	if d.Clock == nil {
		d.Clock = systemClock{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if cfg.MaxSeatsPerBooking <= 0 {
		cfg.MaxSeatsPerBooking = 10
	}
	s := &Scheduler{cfg: cfg, deps: d, log: d.Log.Named("scheduler")}
	w := &Workflow{cfg: cfg, deps: d, scheduler: s, log: d.Log.Named("booking")}
	s.canceller = w
	return s, w
}

func (d Deps) invalidateSeats(ctx context.Context, log *zap.Logger, showtimeID string) {
	if d.Seats == nil {
		return
	}
	if err := d.Seats.Invalidate(ctx, showtimeID); err != nil {
		log.Warn("seat cache invalidation failed", zap.String("showtime_id", showtimeID), zap.Error(err))
	}
}
