package models

// Category groups gear items.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
