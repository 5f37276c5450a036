package postgres

import (
	"context"
	"errors"

	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/storage"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
)

// CreateCategory inserts a category; duplicate names yield storage.ErrAlreadyExists.
func (s *Store) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id, name`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		return models.Category{}, mapWriteError(err)
	}
	return c, nil
}

// ListCategories returns categories ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindCategory fetches a category by id.
func (s *Store) FindCategory(ctx context.Context, id int64) (models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return models.Category{}, mapReadError(err)
	}
	return c, nil
}

const gearSelect = `
	SELECT g.id, g.name, g.description, g.price_per_day, g.stock, g.category_id, g.image_url,
		g.created_at, g.updated_at, c.id, c.name
	FROM gears g
	JOIN categories c ON c.id = g.category_id`

// CreateGear inserts a gear row and returns it with its category.
func (s *Store) CreateGear(ctx context.Context, gear models.Gear) (models.Gear, error) {
	const query = `
		INSERT INTO gears (id, name, description, price_per_day, stock, category_id, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := s.pool.Exec(ctx, query, gear.ID, gear.Name, gear.Description, gear.PricePerDay, gear.Stock,
		gear.CategoryID, gear.ImageURL, gear.CreatedAt)
	if err != nil {
		return models.Gear{}, mapWriteError(err)
	}
	return s.FindGear(ctx, gear.ID)
}

// FindGear fetches a gear item by id.
func (s *Store) FindGear(ctx context.Context, id string) (models.Gear, error) {
	return scanGear(s.pool.QueryRow(ctx, gearSelect+` WHERE g.id = $1`, id))
}

// FindGears fetches several gear items without locking them.
func (s *Store) FindGears(ctx context.Context, ids []string) (map[string]models.Gear, error) {
	return queryGears(ctx, s.pool, gearSelect+` WHERE g.id = ANY($1)`, ids)
}

// ListGears returns gear matching the filter, newest first.
func (s *Store) ListGears(ctx context.Context, filter models.GearFilter) ([]models.Gear, error) {
	const query = gearSelect + `
	WHERE ($1::text = '' OR g.name ILIKE '%' || $1 || '%')
		AND ($2::bigint = 0 OR g.category_id = $2)
	ORDER BY g.created_at DESC, g.id DESC`
	rows, err := s.pool.Query(ctx, query, filter.Search, filter.CategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Gear{}
	for rows.Next() {
		gear, err := scanGear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, gear)
	}
	return out, rows.Err()
}

// UpdateGear applies fn to the current row while holding its FOR UPDATE lock.
func (s *Store) UpdateGear(ctx context.Context, id string, fn func(*models.Gear) error) (models.Gear, error) {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		gear, err := scanGear(tx.QueryRow(ctx, gearSelect+` WHERE g.id = $1 FOR UPDATE OF g`, id))
		if err != nil {
			return err
		}
		if err := fn(&gear); err != nil {
			return err
		}
		const query = `
			UPDATE gears
			SET name = $2, description = $3, price_per_day = $4, stock = $5, category_id = $6,
				image_url = $7, updated_at = $8
			WHERE id = $1`
		_, err = tx.Exec(ctx, query, id, gear.Name, gear.Description, gear.PricePerDay, gear.Stock,
			gear.CategoryID, gear.ImageURL, gear.UpdatedAt)
		if err != nil {
			return mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return models.Gear{}, err
	}
	return s.FindGear(ctx, id)
}

// DeleteGear removes a gear row unless bookings still reference it.
func (s *Store) DeleteGear(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM gears WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgerrcode.ForeignKeyViolation {
			return storage.ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func queryGears(ctx context.Context, q querier, query string, args ...any) (map[string]models.Gear, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.Gear)
	for rows.Next() {
		gear, err := scanGear(rows)
		if err != nil {
			return nil, err
		}
		out[gear.ID] = gear
	}
	return out, rows.Err()
}

func scanGear(row pgx.Row) (models.Gear, error) {
	var g models.Gear
	var c models.Category
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.PricePerDay, &g.Stock, &g.CategoryID, &g.ImageURL,
		&g.CreatedAt, &g.UpdatedAt, &c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Gear{}, storage.ErrNotFound
		}
		return models.Gear{}, err
	}
	g.Category = &c
	return g, nil
}
