// Package booking prices, validates and persists rentals and drives their
// status workflow.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/storage"
)

// Observer receives booking lifecycle events, typically for metrics.
type Observer interface {
	BookingCreated(totalPrice int64)
	BookingRejected(code string)
	BookingStatusChanged(status models.BookingStatus)
}

type nopObserver struct{}

func (nopObserver) BookingCreated(int64)                      {}
func (nopObserver) BookingRejected(string)                    {}
func (nopObserver) BookingStatusChanged(models.BookingStatus) {}

// CreateInput is a booking request after transport decoding.
type CreateInput struct {
	StartDate string
	EndDate   string
	Items     []Line
}

// Quote is a priced request that has not been persisted.
type Quote struct {
	DurationDays int   `json:"durationDays"`
	TotalPrice   int64 `json:"totalPrice"`
}

// Service is the booking engine.
type Service struct {
	bookings storage.BookingStore
	gears    storage.GearStore
	observer Observer
	now      func() time.Time
	newID    func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithObserver reports lifecycle events to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs the engine.
func NewService(bookings storage.BookingStore, gears storage.GearStore, opts ...Option) *Service {
	s := &Service{
		bookings: bookings,
		gears:    gears,
		observer: nopObserver{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and prices the request, reserves stock and stores the
// booking with its items in a single transaction.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (models.Booking, error) {
	created, err := s.create(ctx, userID, in)
	if err != nil {
		appErr := apperr.From(err)
		s.observer.BookingRejected(appErr.Code)
		return models.Booking{}, appErr
	}
	s.observer.BookingCreated(created.TotalPrice)
	return created, nil
}

func (s *Service) create(ctx context.Context, userID string, in CreateInput) (models.Booking, error) {
	start, end, days, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return models.Booking{}, err
	}
	lines, err := normalizeLines(in.Items)
	if err != nil {
		return models.Booking{}, err
	}

	now := s.now().UTC()
	booking := models.Booking{
		ID:           s.newID(),
		UserID:       userID,
		StartDate:    start,
		EndDate:      end,
		DurationDays: days,
		Status:       models.BookingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.bookings.InTx(ctx, func(tx storage.BookingTx) error {
		gears, err := tx.LockGears(ctx, gearIDs(lines))
		if err != nil {
			return fmt.Errorf("lock gears: %w", err)
		}
		items, total, err := price(gears, lines, days)
		if err != nil {
			return err
		}
		for i := range items {
			item := &items[i]
			if err := tx.AdjustStock(ctx, item.GearID, -item.Quantity); err != nil {
				if errors.Is(err, storage.ErrStockExhausted) {
					g := gears[item.GearID]
					return apperr.InsufficientStock(g.Name, item.Quantity, g.Stock)
				}
				return fmt.Errorf("reserve stock for %s: %w", item.GearID, err)
			}
			item.ID = s.newID()
			item.BookingID = booking.ID
		}
		booking.Items = items
		booking.TotalPrice = total
		if err := tx.InsertBooking(ctx, booking); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	created, err := s.bookings.FindBooking(ctx, booking.ID)
	if err != nil {
		return models.Booking{}, fmt.Errorf("reload booking: %w", err)
	}
	return created, nil
}

// Estimate prices a request with current prices and stock without reserving
// anything. It applies the same duration rule and item checks as Create.
func (s *Service) Estimate(ctx context.Context, in CreateInput) (Quote, error) {
	_, _, days, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return Quote{}, err
	}
	lines, err := normalizeLines(in.Items)
	if err != nil {
		return Quote{}, err
	}
	gears, err := s.gears.FindGears(ctx, gearIDs(lines))
	if err != nil {
		return Quote{}, apperr.Internal(fmt.Errorf("find gears: %w", err))
	}
	_, total, err := price(gears, lines, days)
	if err != nil {
		return Quote{}, err
	}
	return Quote{DurationDays: days, TotalPrice: total}, nil
}

// ListForUser returns the user's own bookings, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings, err := s.bookings.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list bookings for %s: %w", userID, err))
	}
	return bookings, nil
}

// ListAll returns every booking annotated with its owner, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.Booking, error) {
	bookings, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list bookings: %w", err))
	}
	return bookings, nil
}

// Get returns a booking visible to the viewer. Bookings owned by someone else
// are reported as missing to non-admins.
func (s *Service) Get(ctx context.Context, id, viewerID string, viewerRole models.Role) (models.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Booking{}, apperr.BookingNotFound()
	}
	b, err := s.bookings.FindBooking(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Booking{}, apperr.BookingNotFound()
		}
		return models.Booking{}, apperr.Internal(fmt.Errorf("find booking %s: %w", id, err))
	}
	if viewerRole != models.RoleAdmin && b.UserID != viewerID {
		return models.Booking{}, apperr.BookingNotFound()
	}
	return b, nil
}

// ParseStatus normalizes a requested target status. APPROVED and REJECTED are
// accepted as aliases of PAID and CANCELLED.
func ParseStatus(raw string) (models.BookingStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(models.BookingPaid), "APPROVED":
		return models.BookingPaid, nil
	case string(models.BookingCancelled), "REJECTED":
		return models.BookingCancelled, nil
	default:
		return "", apperr.Validationf("status must be one of PAID, CANCELLED (got %q)", raw)
	}
}

// UpdateStatus moves a booking along the workflow. Repeating the current
// terminal status is a no-op; cancelling a pending booking returns its units
// to stock in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, id, rawStatus string) (models.Booking, error) {
	next, err := ParseStatus(rawStatus)
	if err != nil {
		return models.Booking{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.Booking{}, apperr.BookingNotFound()
	}

	changed := false
	err = s.bookings.InTx(ctx, func(tx storage.BookingTx) error {
		current, err := tx.LockBooking(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.BookingNotFound()
			}
			return fmt.Errorf("lock booking: %w", err)
		}
		if !current.Status.CanTransitionTo(next) {
			return apperr.InvalidTransition(string(current.Status), string(next))
		}
		if current.Status == next {
			return nil
		}
		if next == models.BookingCancelled {
			for _, item := range current.Items {
				if err := tx.AdjustStock(ctx, item.GearID, item.Quantity); err != nil {
					return fmt.Errorf("restore stock for %s: %w", item.GearID, err)
				}
			}
		}
		if err := tx.SetBookingStatus(ctx, id, next, s.now().UTC()); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return models.Booking{}, apperr.From(err)
	}
	if changed {
		s.observer.BookingStatusChanged(next)
	}

	updated, err := s.bookings.FindBooking(ctx, id)
	if err != nil {
		return models.Booking{}, apperr.Internal(fmt.Errorf("reload booking %s: %w", id, err))
	}
	return updated, nil
}
