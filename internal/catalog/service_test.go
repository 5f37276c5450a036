package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/storage"
	"github.com/hongminglow/summitgear/internal/storage/memory"
)

func ptr[T any](v T) *T { return &v }

func tentInput(categoryID int64) GearInput {
	return GearInput{
		Name:        ptr(" Tent "),
		Description: ptr("2-person dome"),
		PricePerDay: ptr(int64(50000)),
		Stock:       ptr(2),
		CategoryID:  ptr(categoryID),
	}
}

func TestCategories(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, "  ")
	require.True(t, apperr.Is(err, apperr.KindValidation))

	camping, err := svc.CreateCategory(ctx, "Camping")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "Climbing")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "Camping")
	require.True(t, apperr.Is(err, apperr.KindConflict))

	all, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Camping", all[0].Name)

	got, err := svc.GetCategory(ctx, camping.ID)
	require.NoError(t, err)
	assert.Equal(t, camping, got)
	_, err = svc.GetCategory(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGearRoundTrip(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, "Camping")
	require.NoError(t, err)

	created, err := svc.CreateGear(ctx, tentInput(cat.ID))
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err)

	got, err := svc.GetGear(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tent", got.Name)
	assert.Equal(t, int64(50000), got.PricePerDay)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, cat.ID, got.CategoryID)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Camping", got.Category.Name)
}

func TestCreateGearValidation(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, "Camping")
	require.NoError(t, err)

	missing := tentInput(cat.ID)
	missing.Stock = nil
	_, err = svc.CreateGear(ctx, missing)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	negative := tentInput(cat.ID)
	negative.Stock = ptr(-1)
	_, err = svc.CreateGear(ctx, negative)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	free := tentInput(cat.ID)
	free.PricePerDay = ptr(int64(0))
	_, err = svc.CreateGear(ctx, free)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CreateGear(ctx, tentInput(cat.ID+100))
	require.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestUpdateGearPatchesOnlyGivenFields(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, "Camping")
	require.NoError(t, err)
	created, err := svc.CreateGear(ctx, tentInput(cat.ID))
	require.NoError(t, err)

	updated, err := svc.UpdateGear(ctx, created.ID, GearInput{Stock: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, "Tent", updated.Name)
	assert.Equal(t, int64(50000), updated.PricePerDay)

	_, err = svc.UpdateGear(ctx, uuid.NewString(), GearInput{Stock: ptr(1)})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.UpdateGear(ctx, "not-a-uuid", GearInput{Stock: ptr(1)})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.UpdateGear(ctx, created.ID, GearInput{Name: ptr("")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

// reservingStore takes stock through a booking transaction right before the
// gear row is locked for an update.
type reservingStore struct {
	*memory.Store
	quantity int
}

func (s *reservingStore) UpdateGear(ctx context.Context, id string, fn func(*models.Gear) error) (models.Gear, error) {
	err := s.Store.InTx(ctx, func(tx storage.BookingTx) error {
		return tx.AdjustStock(ctx, id, -s.quantity)
	})
	if err != nil {
		return models.Gear{}, err
	}
	return s.Store.UpdateGear(ctx, id, fn)
}

func TestUpdateGearKeepsStockReservedConcurrently(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	cat, err := NewService(store).CreateCategory(ctx, "Camping")
	require.NoError(t, err)
	created, err := NewService(store).CreateGear(ctx, tentInput(cat.ID))
	require.NoError(t, err)
	require.Equal(t, 2, created.Stock)

	svc := NewService(&reservingStore{Store: store, quantity: 2})
	updated, err := svc.UpdateGear(ctx, created.ID, GearInput{Name: ptr("Tent XL")})
	require.NoError(t, err)
	assert.Equal(t, "Tent XL", updated.Name)
	assert.Equal(t, 0, updated.Stock)

	err = store.InTx(ctx, func(tx storage.BookingTx) error {
		return tx.AdjustStock(ctx, created.ID, -1)
	})
	assert.ErrorIs(t, err, storage.ErrStockExhausted)

	restocked, err := NewService(store).UpdateGear(ctx, created.ID, GearInput{Stock: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, restocked.Stock)
	assert.Equal(t, "Tent XL", restocked.Name)
}

func TestUpdateGearUnknownCategory(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, "Camping")
	require.NoError(t, err)
	created, err := svc.CreateGear(ctx, tentInput(cat.ID))
	require.NoError(t, err)

	_, err = svc.UpdateGear(ctx, created.ID, GearInput{CategoryID: ptr(int64(999))})
	require.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "category 999 does not exist")

	got, err := svc.GetGear(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.CategoryID)
}

func TestDeleteGear(t *testing.T) {
	store := memory.New()
	svc := NewService(store)
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, "Camping")
	require.NoError(t, err)
	tent, err := svc.CreateGear(ctx, tentInput(cat.ID))
	require.NoError(t, err)
	stove, err := svc.CreateGear(ctx, tentInput(cat.ID))
	require.NoError(t, err)

	user, err := store.CreateUser(ctx, models.User{ID: uuid.NewString(), Email: "a@x.com", Role: models.RoleCustomer})
	require.NoError(t, err)
	require.NoError(t, store.InTx(ctx, func(tx storage.BookingTx) error {
		return tx.InsertBooking(ctx, models.Booking{
			ID: uuid.NewString(), UserID: user.ID, Status: models.BookingPending,
			Items: []models.BookingItem{{ID: uuid.NewString(), GearID: tent.ID, Quantity: 1, Price: 50000}},
		})
	}))

	assert.True(t, apperr.Is(svc.DeleteGear(ctx, tent.ID), apperr.KindConflict))
	require.NoError(t, svc.DeleteGear(ctx, stove.ID))
	assert.True(t, apperr.Is(svc.DeleteGear(ctx, stove.ID), apperr.KindNotFound))
}

func TestStoreFailuresAreInternal(t *testing.T) {
	store := memory.New()
	svc := NewService(store)
	store.FailNext("CreateCategory", errors.New("conn refused"))

	_, err := svc.CreateCategory(context.Background(), "Camping")
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}
