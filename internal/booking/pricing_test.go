package booking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/models"
)

const (
	tentID  = "0b5d1c62-6a0e-4f7e-9d55-7c1b2a000001"
	stoveID = "0b5d1c62-6a0e-4f7e-9d55-7c1b2a000002"
)

func TestNormalizeLinesMergesDuplicates(t *testing.T) {
	lines, err := normalizeLines([]Line{
		{GearID: tentID, Quantity: 1},
		{GearID: stoveID, Quantity: 2},
		{GearID: tentID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []Line{{GearID: tentID, Quantity: 3}, {GearID: stoveID, Quantity: 2}}, lines)
}

func TestNormalizeLinesRejects(t *testing.T) {
	_, err := normalizeLines(nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = normalizeLines([]Line{{GearID: tentID, Quantity: 0}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = normalizeLines([]Line{{GearID: "not-a-uuid", Quantity: 1}})
	assert.True(t, apperr.Is(err, apperr.KindGearNotFound))
}

func TestPrice(t *testing.T) {
	gears := map[string]models.Gear{
		tentID:  {ID: tentID, Name: "Tent", PricePerDay: 50000, Stock: 2},
		stoveID: {ID: stoveID, Name: "Stove", PricePerDay: 15000, Stock: 4},
	}
	items, total, err := price(gears, []Line{{GearID: tentID, Quantity: 1}, {GearID: stoveID, Quantity: 3}}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(50000*1*2+15000*3*2), total)
	require.Len(t, items, 2)
	assert.Equal(t, int64(50000), items[0].Price)
	assert.Equal(t, int64(15000), items[1].Price)
}

func TestPriceChecksWholeListFirst(t *testing.T) {
	gears := map[string]models.Gear{
		tentID: {ID: tentID, Name: "Tent", PricePerDay: 50000, Stock: 2},
	}
	_, _, err := price(gears, []Line{{GearID: tentID, Quantity: 1}, {GearID: stoveID, Quantity: 1}}, 1)
	assert.True(t, apperr.Is(err, apperr.KindGearNotFound))

	_, _, err = price(gears, []Line{{GearID: tentID, Quantity: 3}}, 1)
	require.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Contains(t, apperr.From(err).Message, "Tent")
}

func TestPriceOverflow(t *testing.T) {
	gears := map[string]models.Gear{
		tentID: {ID: tentID, Name: "Tent", PricePerDay: math.MaxInt64 / 2, Stock: 10},
	}
	_, _, err := price(gears, []Line{{GearID: tentID, Quantity: 3}}, 1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
