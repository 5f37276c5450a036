// Package memory implements storage.Store in process memory. Transactions are
// serialized by a single mutex and staged writes apply only on commit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/summitgear/internal/models"
	"github.com/hongminglow/summitgear/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is an in-memory storage.Store.
type Store struct {
	mu sync.Mutex

	users      map[string]models.User
	emails     map[string]string // email -> user id
	categories map[int64]models.Category
	nextCatID  int64
	gears      map[string]models.Gear
	bookings   map[string]models.Booking

	nextErr map[string]error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:      make(map[string]models.User),
		emails:     make(map[string]string),
		categories: make(map[int64]models.Category),
		gears:      make(map[string]models.Gear),
		bookings:   make(map[string]models.Booking),
		nextErr:    make(map[string]error),
	}
}

// FailNext makes the next call of the named operation return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextErr[op] = err
}

func (s *Store) takeErr(op string) error {
	if err, ok := s.nextErr[op]; ok {
		delete(s.nextErr, op)
		return err
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CreateUser"); err != nil {
		return models.User{}, err
	}
	if _, exists := s.emails[user.Email]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	if _, exists := s.users[user.ID]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	s.emails[user.Email] = user.ID
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("FindUserByEmail"); err != nil {
		return models.User{}, err
	}
	id, ok := s.emails[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) UpdateUserProfile(_ context.Context, id, name string, passwordHash *string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("UpdateUserProfile"); err != nil {
		return models.User{}, err
	}
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	user.Name = name
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	s.users[id] = user
	return user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("ListUsers"); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// --- categories ---

func (s *Store) CreateCategory(_ context.Context, name string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CreateCategory"); err != nil {
		return models.Category{}, err
	}
	for _, c := range s.categories {
		if c.Name == name {
			return models.Category{}, storage.ErrAlreadyExists
		}
	}
	s.nextCatID++
	c := models.Category{ID: s.nextCatID, Name: name}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FindCategory(_ context.Context, id int64) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return models.Category{}, storage.ErrNotFound
	}
	return c, nil
}

// --- gears ---

func (s *Store) CreateGear(_ context.Context, gear models.Gear) (models.Gear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CreateGear"); err != nil {
		return models.Gear{}, err
	}
	if _, ok := s.categories[gear.CategoryID]; !ok {
		return models.Gear{}, storage.ErrInvalidReference
	}
	if _, exists := s.gears[gear.ID]; exists {
		return models.Gear{}, storage.ErrAlreadyExists
	}
	gear.UpdatedAt = gear.CreatedAt
	gear.Category = nil
	s.gears[gear.ID] = gear
	return s.withCategory(gear), nil
}

func (s *Store) FindGear(_ context.Context, id string) (models.Gear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("FindGear"); err != nil {
		return models.Gear{}, err
	}
	gear, ok := s.gears[id]
	if !ok {
		return models.Gear{}, storage.ErrNotFound
	}
	return s.withCategory(gear), nil
}

func (s *Store) FindGears(_ context.Context, ids []string) (map[string]models.Gear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("FindGears"); err != nil {
		return nil, err
	}
	out := make(map[string]models.Gear, len(ids))
	for _, id := range ids {
		if gear, ok := s.gears[id]; ok {
			out[id] = s.withCategory(gear)
		}
	}
	return out, nil
}

func (s *Store) ListGears(_ context.Context, filter models.GearFilter) ([]models.Gear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(filter.Search)
	out := []models.Gear{}
	for _, g := range s.gears {
		if needle != "" && !strings.Contains(strings.ToLower(g.Name), needle) {
			continue
		}
		if filter.CategoryID != 0 && g.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, s.withCategory(g))
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) UpdateGear(_ context.Context, id string, fn func(*models.Gear) error) (models.Gear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("UpdateGear"); err != nil {
		return models.Gear{}, err
	}
	existing, ok := s.gears[id]
	if !ok {
		return models.Gear{}, storage.ErrNotFound
	}
	gear := s.withCategory(existing)
	if err := fn(&gear); err != nil {
		return models.Gear{}, err
	}
	if _, ok := s.categories[gear.CategoryID]; !ok {
		return models.Gear{}, storage.ErrInvalidReference
	}
	gear.ID = existing.ID
	gear.CreatedAt = existing.CreatedAt
	gear.Category = nil
	s.gears[id] = gear
	return s.withCategory(gear), nil
}

func (s *Store) DeleteGear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gears[id]; !ok {
		return storage.ErrNotFound
	}
	for _, b := range s.bookings {
		for _, item := range b.Items {
			if item.GearID == id {
				return storage.ErrInUse
			}
		}
	}
	delete(s.gears, id)
	return nil
}

func (s *Store) withCategory(g models.Gear) models.Gear {
	if c, ok := s.categories[g.CategoryID]; ok {
		cat := c
		g.Category = &cat
	}
	return g
}

// --- bookings ---

func (s *Store) FindBooking(_ context.Context, id string) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("FindBooking"); err != nil {
		return models.Booking{}, err
	}
	b, ok := s.bookings[id]
	if !ok {
		return models.Booking{}, storage.ErrNotFound
	}
	return s.materialize(b, false), nil
}

func (s *Store) ListBookingsByUser(_ context.Context, userID string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("ListBookingsByUser"); err != nil {
		return nil, err
	}
	return s.listBookings(func(b models.Booking) bool { return b.UserID == userID }, false), nil
}

func (s *Store) ListBookings(_ context.Context) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("ListBookings"); err != nil {
		return nil, err
	}
	return s.listBookings(func(models.Booking) bool { return true }, true), nil
}

func (s *Store) listBookings(keep func(models.Booking) bool, withUser bool) []models.Booking {
	out := []models.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, s.materialize(b, withUser))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

// materialize copies a stored booking and attaches gear (and optionally owner) details.
func (s *Store) materialize(b models.Booking, withUser bool) models.Booking {
	items := make([]models.BookingItem, len(b.Items))
	for i, item := range b.Items {
		if gear, ok := s.gears[item.GearID]; ok {
			g := s.withCategory(gear)
			item.Gear = &g
		}
		items[i] = item
	}
	b.Items = items
	b.User = nil
	if withUser {
		if u, ok := s.users[b.UserID]; ok {
			p := u.Public()
			b.User = &p
		}
	}
	return b
}

// InTx holds the store lock for the whole transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.BookingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.takeErr("InTx"); err != nil {
		return err
	}

	tx := &memTx{
		store:    s,
		stock:    make(map[string]int),
		statuses: make(map[string]statusChange),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type statusChange struct {
	status models.BookingStatus
	at     time.Time
}

type memTx struct {
	store    *Store
	stock    map[string]int
	inserted []models.Booking
	statuses map[string]statusChange
}

func (t *memTx) currentStock(id string) int {
	if v, ok := t.stock[id]; ok {
		return v
	}
	return t.store.gears[id].Stock
}

func (t *memTx) LockGears(_ context.Context, ids []string) (map[string]models.Gear, error) {
	if err := t.store.takeErr("LockGears"); err != nil {
		return nil, err
	}
	out := make(map[string]models.Gear, len(ids))
	for _, id := range ids {
		gear, ok := t.store.gears[id]
		if !ok {
			continue
		}
		gear = t.store.withCategory(gear)
		gear.Stock = t.currentStock(id)
		out[id] = gear
	}
	return out, nil
}

func (t *memTx) AdjustStock(_ context.Context, gearID string, delta int) error {
	if err := t.store.takeErr("AdjustStock"); err != nil {
		return err
	}
	if _, ok := t.store.gears[gearID]; !ok {
		return storage.ErrNotFound
	}
	next := t.currentStock(gearID) + delta
	if next < 0 {
		return storage.ErrStockExhausted
	}
	t.stock[gearID] = next
	return nil
}

func (t *memTx) InsertBooking(_ context.Context, b models.Booking) error {
	if err := t.store.takeErr("InsertBooking"); err != nil {
		return err
	}
	if _, ok := t.store.users[b.UserID]; !ok {
		return storage.ErrInvalidReference
	}
	if _, exists := t.store.bookings[b.ID]; exists {
		return storage.ErrAlreadyExists
	}
	items := make([]models.BookingItem, len(b.Items))
	for i, item := range b.Items {
		if _, ok := t.store.gears[item.GearID]; !ok {
			return storage.ErrInvalidReference
		}
		item.BookingID = b.ID
		item.Gear = nil
		items[i] = item
	}
	b.Items = items
	b.User = nil
	t.inserted = append(t.inserted, b)
	return nil
}

func (t *memTx) LockBooking(_ context.Context, id string) (models.Booking, error) {
	b, ok := t.store.bookings[id]
	if !ok {
		return models.Booking{}, storage.ErrNotFound
	}
	if change, ok := t.statuses[id]; ok {
		b.Status = change.status
		b.UpdatedAt = change.at
	}
	return t.store.materialize(b, false), nil
}

func (t *memTx) SetBookingStatus(_ context.Context, id string, status models.BookingStatus, at time.Time) error {
	if err := t.store.takeErr("SetBookingStatus"); err != nil {
		return err
	}
	if _, ok := t.store.bookings[id]; !ok {
		return storage.ErrNotFound
	}
	t.statuses[id] = statusChange{status: status, at: at}
	return nil
}

func (t *memTx) commit() {
	for id, stock := range t.stock {
		gear := t.store.gears[id]
		gear.Stock = stock
		t.store.gears[id] = gear
	}
	for _, b := range t.inserted {
		t.store.bookings[b.ID] = b
	}
	for id, change := range t.statuses {
		b := t.store.bookings[id]
		b.Status = change.status
		b.UpdatedAt = change.at
		t.store.bookings[id] = b
	}
}

func newerFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID > bID
}
