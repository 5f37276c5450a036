package models

import "time"

// BookingStatus is the state of a booking in the approval workflow.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingPaid      BookingStatus = "PAID"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingPaid || s == BookingCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Re-applying the current terminal status is accepted as a no-op.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingPaid || next == BookingCancelled
	case BookingPaid, BookingCancelled:
		return next == s
	default:
		return false
	}
}

// Booking is a customer's reservation of gear for a date range.
type Booking struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	StartDate    time.Time     `json:"startDate"`
	EndDate      time.Time     `json:"endDate"`
	DurationDays int           `json:"durationDays"`
	TotalPrice   int64         `json:"totalPrice"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	Items        []BookingItem `json:"items"`
	User         *PublicUser   `json:"user,omitempty"`
}

// BookingItem is one line of a booking. Price snapshots the gear's daily price.
type BookingItem struct {
	ID        string `json:"id"`
	BookingID string `json:"bookingId"`
	GearID    string `json:"gearId"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Gear      *Gear  `json:"gear,omitempty"`
}
