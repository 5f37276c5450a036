// Package catalog manages categories and the gear inventory outside of bookings.
package catalog

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

// Store is the persistence the catalog needs.
type Store interface {
	storage.CategoryStore
	storage.GearStore
}

// GearInput holds the writable gear fields. Nil pointers leave a field unchanged on update.
type GearInput struct {
	Name        *string
	Description *string
	PricePerDay *int64
	Stock       *int
	CategoryID  *int64
	ImageURL    *string
}

// Service validates catalog writes before they reach the store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService returns a catalog service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, apperr.Validation("name is required")
	}
	c, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Category{}, apperr.Conflict(fmt.Sprintf("category %q already exists", name))
		}
		return models.Category{}, apperr.Internal(fmt.Errorf("create category: %w", err))
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list categories: %w", err))
	}
	return cats, nil
}

func (s *Service) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	c, err := s.store.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Category{}, apperr.NotFound("category")
		}
		return models.Category{}, apperr.Internal(fmt.Errorf("find category %d: %w", id, err))
	}
	return c, nil
}

// CreateGear adds an item to the inventory. Every field but description and
// image is required.
func (s *Service) CreateGear(ctx context.Context, in GearInput) (models.Gear, error) {
	if in.Name == nil || in.PricePerDay == nil || in.Stock == nil || in.CategoryID == nil {
		return models.Gear{}, apperr.Validation("name, pricePerDay, stock and categoryId are required")
	}
	now := s.now().UTC()
	gear := models.Gear{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := apply(&gear, in); err != nil {
		return models.Gear{}, err
	}
	created, err := s.store.CreateGear(ctx, gear)
	if err != nil {
		return models.Gear{}, gearWriteError(err, gear.CategoryID)
	}
	return created, nil
}

func (s *Service) GetGear(ctx context.Context, id string) (models.Gear, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Gear{}, apperr.NotFound("gear")
	}
	g, err := s.store.FindGear(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Gear{}, apperr.NotFound("gear")
		}
		return models.Gear{}, apperr.Internal(fmt.Errorf("find gear %s: %w", id, err))
	}
	return g, nil
}

// ListGears returns gear newest first, filtered by name substring and category.
func (s *Service) ListGears(ctx context.Context, filter models.GearFilter) ([]models.Gear, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	gears, err := s.store.ListGears(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list gears: %w", err))
	}
	return gears, nil
}

// UpdateGear patches the given fields on the locked row. Stock is only
// written when the input sets it, replacing the available count.
func (s *Service) UpdateGear(ctx context.Context, id string, in GearInput) (models.Gear, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Gear{}, apperr.NotFound("gear")
	}
	now := s.now().UTC()
	updated, err := s.store.UpdateGear(ctx, id, func(g *models.Gear) error {
		if err := apply(g, in); err != nil {
			return err
		}
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		switch {
		case errors.As(err, &appErr):
			return models.Gear{}, appErr
		case errors.Is(err, storage.ErrNotFound):
			return models.Gear{}, apperr.NotFound("gear")
		}
		var categoryID int64
		if in.CategoryID != nil {
			categoryID = *in.CategoryID
		}
		return models.Gear{}, gearWriteError(err, categoryID)
	}
	return updated, nil
}

// DeleteGear removes gear that no booking references.
func (s *Service) DeleteGear(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("gear")
	}
	err := s.store.DeleteGear(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("gear")
	case errors.Is(err, storage.ErrInUse):
		return apperr.Conflict("gear is referenced by existing bookings")
	default:
		return apperr.Internal(fmt.Errorf("delete gear %s: %w", id, err))
	}
}

func apply(g *models.Gear, in GearInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperr.Validation("name must not be empty")
		}
		g.Name = name
	}
	if in.Description != nil {
		g.Description = strings.TrimSpace(*in.Description)
	}
	if in.PricePerDay != nil {
		if *in.PricePerDay <= 0 {
			return apperr.Validation("pricePerDay must be positive")
		}
		g.PricePerDay = *in.PricePerDay
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return apperr.Validation("stock must not be negative")
		}
		g.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		if *in.CategoryID <= 0 {
			return apperr.Validation("categoryId must be positive")
		}
		g.CategoryID = *in.CategoryID
	}
	if in.ImageURL != nil {
		g.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	return nil
}

func gearWriteError(err error, categoryID int64) error {
	switch {
	case errors.Is(err, storage.ErrInvalidReference):
		return apperr.Validationf("category %d does not exist", categoryID)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperr.Conflict("gear already exists")
	default:
		return apperr.Internal(fmt.Errorf("write gear: %w", err))
	}
}
