package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/summitgear/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInUse indicates a delete blocked by rows that still reference the record.
var ErrInUse = errors.New("record is referenced by other records")

// ErrInvalidReference indicates a write pointing at a missing parent record.
var ErrInvalidReference = errors.New("referenced record does not exist")

// ErrStockExhausted is returned when a stock decrement would go below zero.
var ErrStockExhausted = errors.New("stock exhausted")

// UserStore captures credential persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	// UpdateUserProfile sets the name and, when passwordHash is non-nil, the hash.
	UpdateUserProfile(ctx context.Context, id, name string, passwordHash *string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// CategoryStore captures category reference data.
type CategoryStore interface {
	CreateCategory(ctx context.Context, name string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id int64) (models.Category, error)
}

// GearStore is the inventory ledger outside of booking transactions.
type GearStore interface {
	CreateGear(ctx context.Context, gear models.Gear) (models.Gear, error)
	FindGear(ctx context.Context, id string) (models.Gear, error)
	FindGears(ctx context.Context, ids []string) (map[string]models.Gear, error)
	ListGears(ctx context.Context, filter models.GearFilter) ([]models.Gear, error)
	// UpdateGear locks the row, hands its current state to fn and writes back
	// what fn leaves. An error from fn aborts the write and is returned as is.
	UpdateGear(ctx context.Context, id string, fn func(*models.Gear) error) (models.Gear, error)
	DeleteGear(ctx context.Context, id string) error
}

// BookingStore persists bookings. Writes happen only through InTx.
type BookingStore interface {
	// InTx runs fn in one transaction, committing when fn returns nil.
	InTx(ctx context.Context, fn func(tx BookingTx) error) error
	FindBooking(ctx context.Context, id string) (models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	// ListBookings returns every booking with its owner attached.
	ListBookings(ctx context.Context) ([]models.Booking, error)
}

// BookingTx is the set of operations available inside a booking transaction.
type BookingTx interface {
	// LockGears locks the given gear rows until commit. Missing ids are absent from the map.
	LockGears(ctx context.Context, ids []string) (map[string]models.Gear, error)
	// AdjustStock adds delta to a gear's stock, failing with ErrStockExhausted below zero.
	AdjustStock(ctx context.Context, gearID string, delta int) error
	InsertBooking(ctx context.Context, booking models.Booking) error
	LockBooking(ctx context.Context, id string) (models.Booking, error)
	SetBookingStatus(ctx context.Context, id string, status models.BookingStatus, at time.Time) error
}

// Store is the full persistence handle injected into services.
type Store interface {
	UserStore
	CategoryStore
	GearStore
	BookingStore
	Ping(ctx context.Context) error
	Close()
}
