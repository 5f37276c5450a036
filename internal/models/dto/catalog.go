package dto

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type CreateGearRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
	PricePerDay int64  `json:"pricePerDay" validate:"required,gt=0"`
	Stock       *int   `json:"stock" validate:"required,gte=0"`
	CategoryID  int64  `json:"categoryId" validate:"required,gt=0"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// UpdateGearRequest carries optional fields; nil leaves the value unchanged.
type UpdateGearRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	PricePerDay *int64  `json:"pricePerDay" validate:"omitempty,gt=0"`
	Stock       *int    `json:"stock" validate:"omitempty,gte=0"`
	CategoryID  *int64  `json:"categoryId" validate:"omitempty,gt=0"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
}
