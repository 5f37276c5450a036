package booking

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/models"
)

// Line is one requested (gear, quantity) pair.
type Line struct {
	GearID   string
	Quantity int
}

// normalizeLines validates the requested lines and merges repeated gear ids,
// keeping first-seen order.
func normalizeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}
	index := make(map[string]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		id := strings.ToLower(strings.TrimSpace(l.GearID))
		if id == "" {
			return nil, apperr.Validation("gearId is required")
		}
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperr.GearNotFound(l.GearID)
		}
		if l.Quantity < 1 {
			return nil, apperr.Validationf("quantity for gear %s must be at least 1", id)
		}
		if i, seen := index[id]; seen {
			out[i].Quantity += l.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, Line{GearID: id, Quantity: l.Quantity})
	}
	return out, nil
}

func gearIDs(lines []Line) []string {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.GearID
	}
	return ids
}

// price checks every line against the ledger before computing anything, then
// returns the items with snapshotted prices and the grand total.
func price(gears map[string]models.Gear, lines []Line, days int) ([]models.BookingItem, int64, error) {
	for _, l := range lines {
		gear, ok := gears[l.GearID]
		if !ok {
			return nil, 0, apperr.GearNotFound(l.GearID)
		}
		if l.Quantity > gear.Stock {
			return nil, 0, apperr.InsufficientStock(gear.Name, l.Quantity, gear.Stock)
		}
	}

	items := make([]models.BookingItem, 0, len(lines))
	var total int64
	for _, l := range lines {
		gear := gears[l.GearID]
		subTotal, ok := mul(gear.PricePerDay, int64(l.Quantity), int64(days))
		if !ok || total > math.MaxInt64-subTotal {
			return nil, 0, apperr.Validation("booking total is too large")
		}
		total += subTotal
		items = append(items, models.BookingItem{
			GearID:   gear.ID,
			Quantity: l.Quantity,
			Price:    gear.PricePerDay,
		})
	}
	return items, total, nil
}

// mul multiplies non-negative factors, reporting overflow.
func mul(factors ...int64) (int64, bool) {
	product := int64(1)
	for _, f := range factors {
		if f < 0 {
			return 0, false
		}
		if f != 0 && product > math.MaxInt64/f {
			return 0, false
		}
		product *= f
	}
	return product, true
}
