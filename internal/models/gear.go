package models

import "time"

// Gear is a rentable inventory item. PricePerDay is in the smallest currency unit.
type Gear struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PricePerDay int64     `json:"pricePerDay"`
	Stock       int       `json:"stock"`
	CategoryID  int64     `json:"categoryId"`
	ImageURL    string    `json:"imageUrl"`
	Category    *Category `json:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GearFilter narrows catalog listings.
type GearFilter struct {
	Search     string
	CategoryID int64
}
