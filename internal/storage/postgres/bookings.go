package postgres

import (
	"context"
	"time"

	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/storage"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `b.id, b.user_id, b.start_date, b.end_date, b.duration_days, b.total_price, b.status, b.created_at, b.updated_at`

// FindBooking fetches a booking with its items and gear.
func (s *Store) FindBooking(ctx context.Context, id string) (models.Booking, error) {
	return findBooking(ctx, s.pool, id, false)
}

// ListBookingsByUser returns the user's bookings, newest first.
func (s *Store) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.user_id = $1 ORDER BY b.created_at DESC, b.id DESC`
	return listBookings(ctx, s.pool, query, false, userID)
}

// ListBookings returns all bookings with their owners, newest first.
func (s *Store) ListBookings(ctx context.Context) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `, u.id, u.name, u.email, u.role
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		ORDER BY b.created_at DESC, b.id DESC`
	return listBookings(ctx, s.pool, query, true)
}

type bookingTx struct {
	tx pgx.Tx
}

// LockGears takes row locks in id order so concurrent bookings cannot deadlock.
func (t *bookingTx) LockGears(ctx context.Context, ids []string) (map[string]models.Gear, error) {
	const query = gearSelect + `
	WHERE g.id = ANY($1)
	ORDER BY g.id
	FOR UPDATE OF g`
	return queryGears(ctx, t.tx, query, ids)
}

func (t *bookingTx) AdjustStock(ctx context.Context, gearID string, delta int) error {
	const query = `
		UPDATE gears
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0`
	tag, err := t.tx.Exec(ctx, query, gearID, delta)
	if err != nil {
		if pgCode(err) == pgerrcode.CheckViolation {
			return storage.ErrStockExhausted
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrStockExhausted
	}
	return nil
}

func (t *bookingTx) InsertBooking(ctx context.Context, b models.Booking) error {
	const bookingQuery = `
		INSERT INTO bookings (id, user_id, start_date, end_date, duration_days, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := t.tx.Exec(ctx, bookingQuery, b.ID, b.UserID, b.StartDate, b.EndDate, b.DurationDays, b.TotalPrice,
		string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	batch := &pgx.Batch{}
	for _, item := range b.Items {
		batch.Queue(`INSERT INTO booking_items (id, booking_id, gear_id, quantity, price) VALUES ($1, $2, $3, $4, $5)`,
			item.ID, b.ID, item.GearID, item.Quantity, item.Price)
	}
	results := t.tx.SendBatch(ctx, batch)
	for range b.Items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return mapWriteError(err)
		}
	}
	return results.Close()
}

func (t *bookingTx) LockBooking(ctx context.Context, id string) (models.Booking, error) {
	return findBooking(ctx, t.tx, id, true)
}

func (t *bookingTx) SetBookingStatus(ctx context.Context, id string, status models.BookingStatus, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func findBooking(ctx context.Context, q querier, id string, forUpdate bool) (models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	b, err := scanBooking(q.QueryRow(ctx, query, id), false)
	if err != nil {
		return models.Booking{}, mapReadError(err)
	}
	items, err := loadItems(ctx, q, []string{b.ID})
	if err != nil {
		return models.Booking{}, err
	}
	if its, ok := items[b.ID]; ok {
		b.Items = its
	}
	return b, nil
}

func listBookings(ctx context.Context, q querier, query string, withUser bool, args ...any) ([]models.Booking, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows, withUser)
		if err != nil {
			rows.Close()
			return nil, err
		}
		bookings = append(bookings, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	ids := make([]string, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	items, err := loadItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if its, ok := items[bookings[i].ID]; ok {
			bookings[i].Items = its
		}
	}
	return bookings, nil
}

func loadItems(ctx context.Context, q querier, bookingIDs []string) (map[string][]models.BookingItem, error) {
	const query = `
	SELECT bi.id, bi.booking_id, bi.gear_id, bi.quantity, bi.price,
		g.id, g.name, g.description, g.price_per_day, g.stock, g.category_id, g.image_url,
		g.created_at, g.updated_at, c.id, c.name
	FROM booking_items bi
	JOIN gears g ON g.id = bi.gear_id
	JOIN categories c ON c.id = g.category_id
	WHERE bi.booking_id = ANY($1)
	ORDER BY bi.booking_id, g.name, bi.id`
	rows, err := q.Query(ctx, query, bookingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.BookingItem, len(bookingIDs))
	for rows.Next() {
		var item models.BookingItem
		var g models.Gear
		var c models.Category
		if err := rows.Scan(&item.ID, &item.BookingID, &item.GearID, &item.Quantity, &item.Price,
			&g.ID, &g.Name, &g.Description, &g.PricePerDay, &g.Stock, &g.CategoryID, &g.ImageURL,
			&g.CreatedAt, &g.UpdatedAt, &c.ID, &c.Name); err != nil {
			return nil, err
		}
		g.Category = &c
		item.Gear = &g
		out[item.BookingID] = append(out[item.BookingID], item)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row, withUser bool) (models.Booking, error) {
	var b models.Booking
	var status string
	dest := []any{&b.ID, &b.UserID, &b.StartDate, &b.EndDate, &b.DurationDays, &b.TotalPrice, &status, &b.CreatedAt, &b.UpdatedAt}
	var owner models.PublicUser
	var role string
	if withUser {
		dest = append(dest, &owner.ID, &owner.Name, &owner.Email, &role)
	}
	if err := row.Scan(dest...); err != nil {
		return models.Booking{}, err
	}
	b.Status = models.BookingStatus(status)
	if withUser {
		owner.Role = models.Role(role)
		b.User = &owner
	}
	b.Items = []models.BookingItem{}
	return b, nil
}
