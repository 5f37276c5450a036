package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/summitgear/internal/models"
)

func (a *testAPI) seedGear(admin, name string, price int64, stock int) models.Gear {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/categories", admin, map[string]string{"name": "Camping " + name})
	require.Equal(a.t, http.StatusCreated, status, env.Message)
	cat := decodeData[models.Category](a.t, env)

	status, env = a.do(http.MethodPost, "/api/gears", admin, map[string]any{
		"name": name, "description": "rental " + name, "pricePerDay": price, "stock": stock, "categoryId": cat.ID,
	})
	require.Equal(a.t, http.StatusCreated, status, env.Message)
	return decodeData[models.Gear](a.t, env)
}

func TestGearCreateGetRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken()
	created := api.seedGear(admin, "Tent", 50000, 2)

	status, env := api.do(http.MethodGet, "/api/gears/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	got := decodeData[models.Gear](t, env)
	assert.Equal(t, "Tent", got.Name)
	assert.Equal(t, int64(50000), got.PricePerDay)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, created.CategoryID, got.CategoryID)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Camping Tent", got.Category.Name)

	status, env = api.do(http.MethodGet, "/api/gears/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error)
	status, _ = api.do(http.MethodGet, "/api/gears/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	customer := api.customerToken("Alice", "alice@x.com")

	status, env := api.do(http.MethodPost, "/api/categories", customer, map[string]string{"name": "Tents"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error)

	status, env = api.do(http.MethodPost, "/api/gears", "", map[string]any{"name": "Tent"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", env.Error)

	status, _ = api.do(http.MethodDelete, "/api/gears/"+uuid.NewString(), customer, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestGearListFiltersAndUpdates(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken()
	tent := api.seedGear(admin, "Tent", 50000, 2)
	stove := api.seedGear(admin, "Stove", 15000, 4)

	status, env := api.do(http.MethodGet, "/api/gears?search=sto", "", nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeData[[]models.Gear](t, env)
	require.Len(t, list, 1)
	assert.Equal(t, stove.ID, list[0].ID)

	status, env = api.do(http.MethodGet, "/api/gears?cat="+itoa(tent.CategoryID), "", nil)
	require.Equal(t, http.StatusOK, status)
	list = decodeData[[]models.Gear](t, env)
	require.Len(t, list, 1)
	assert.Equal(t, tent.ID, list[0].ID)

	status, env = api.do(http.MethodGet, "/api/gears?cat=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)

	status, env = api.do(http.MethodPatch, "/api/gears/"+tent.ID, admin, map[string]any{"stock": 9})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 9, decodeData[models.Gear](t, env).Stock)

	status, _ = api.do(http.MethodDelete, "/api/gears/"+stove.ID, admin, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, "/api/gears/"+stove.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCategoryRoutes(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken()

	status, env := api.do(http.MethodPost, "/api/categories", admin, map[string]string{"name": "Tents"})
	require.Equal(t, http.StatusCreated, status)
	cat := decodeData[models.Category](t, env)

	status, _ = api.do(http.MethodPost, "/api/categories", admin, map[string]string{"name": "Tents"})
	assert.Equal(t, http.StatusConflict, status)

	status, env = api.do(http.MethodGet, "/api/categories/"+itoa(cat.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Tents", decodeData[models.Category](t, env).Name)

	status, _ = api.do(http.MethodGet, "/api/categories/999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = api.do(http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]models.Category](t, env), 1)
}
