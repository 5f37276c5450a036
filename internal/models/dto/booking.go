package dto

type BookingItemRequest struct {
	GearID   string `json:"gearId" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gte=1,lte=1000"`
}

// CreateBookingRequest is decoded with unknown fields disallowed, so a client
// supplied totalPrice is rejected rather than ignored.
type CreateBookingRequest struct {
	StartDate string               `json:"startDate" validate:"required"`
	EndDate   string               `json:"endDate" validate:"required"`
	Items     []BookingItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type EstimateResponse struct {
	DurationDays int   `json:"durationDays"`
	TotalPrice   int64 `json:"totalPrice"`
}
