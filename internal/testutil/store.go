// Package testutil хранилище в памяти для тестов сервисов и use case.
// Условные обновления (MarkBooked, UpdateStatus, Save) ведут себя как соответствующие SQL запросы.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	settingsRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slotsettings"
)

// Store общее состояние всех репозиториев в памяти
type Store struct {
	mu sync.Mutex

	schedules map[int64]domain.ScheduleData
	slots     map[int64]domain.AvailabilitySlot
	bookings  map[int64]domain.Booking
	settings  map[int64]domain.SlotSettings
	customers map[int64][2]string
	workers   map[int64]workerRow

	nextID int64
	now    func() time.Time
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		schedules: make(map[int64]domain.ScheduleData),
		slots:     make(map[int64]domain.AvailabilitySlot),
		bookings:  make(map[int64]domain.Booking),
		settings:  make(map[int64]domain.SlotSettings),
		customers: make(map[int64][2]string),
		workers:   make(map[int64]workerRow),
		now:       time.Now,
	}
}

// AddCustomer справочные данные клиента для GetDetails
func (s *Store) AddCustomer(id int64, name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[id] = [2]string{name, email}
}

type workerRow struct {
	businessProfileID int64
	name              string
}

// AddWorker справочные данные работника: владелец и имя для GetDetails
func (s *Store) AddWorker(id, businessProfileID int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[id] = workerRow{businessProfileID: businessProfileID, name: name}
}

// Slots снимок всех слотов работника, отсортированный по началу
func (s *Store) Slots(workerID int64) []domain.AvailabilitySlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.AvailabilitySlot, 0)
	for _, slot := range s.slots {
		if slot.WorkerID == workerID {
			result = append(result, slot)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result
}

// Booking снимок бронирования
func (s *Store) Booking(id int64) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

// Slot снимок слота
func (s *Store) Slot(id int64) (domain.AvailabilitySlot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	return slot, ok
}

// BookingCount количество бронирований
func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type snapshot struct {
	schedules map[int64]domain.ScheduleData
	slots     map[int64]domain.AvailabilitySlot
	bookings  map[int64]domain.Booking
	settings  map[int64]domain.SlotSettings
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		schedules: copyMap(s.schedules),
		slots:     copyMap(s.slots),
		bookings:  copyMap(s.bookings),
		settings:  copyMap(s.settings),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = snap.schedules
	s.slots = snap.slots
	s.bookings = snap.bookings
	s.settings = snap.settings
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// TxManager транзакции в памяти: транзакции выполняются строго по очереди,
// при ошибке состояние откатывается к снимку
type TxManager struct {
	store *Store
	txMu  sync.Mutex

	// FailCommit ошибка, которую вернет следующий коммит (для тестов отката)
	FailCommit error
}

// NewTxManager менеджер транзакций поверх store
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// Do выполняет fn атомарно
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	if m.FailCommit != nil {
		err := m.FailCommit
		m.FailCommit = nil
		m.store.restore(snap)
		return err
	}
	return nil
}

// DoSerializable то же, что Do: транзакции в памяти и так сериализованы
func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

// DoReadOnly то же, что Do
func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

// ScheduleRepository репозиторий расписаний в памяти
type ScheduleRepository struct{ s *Store }

// SlotRepository репозиторий слотов в памяти
type SlotRepository struct{ s *Store }

// BookingRepository репозиторий бронирований в памяти
type BookingRepository struct{ s *Store }

// SettingsRepository репозиторий настроек в памяти
type SettingsRepository struct{ s *Store }

// WorkerRepository справочник работников в памяти
type WorkerRepository struct{ s *Store }

// Schedules репозиторий расписаний
func (s *Store) Schedules() *ScheduleRepository { return &ScheduleRepository{s: s} }

// SlotsRepo репозиторий слотов
func (s *Store) SlotsRepo() *SlotRepository { return &SlotRepository{s: s} }

// Bookings репозиторий бронирований
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }

// Settings репозиторий настроек
func (s *Store) Settings() *SettingsRepository { return &SettingsRepository{s: s} }

// Workers справочник работников
func (s *Store) Workers() *WorkerRepository { return &WorkerRepository{s: s} }

// ---- workers ----

func (r *WorkerRepository) BelongsToBusiness(_ context.Context, workerID, businessProfileID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.workers[workerID]
	return !ok || w.businessProfileID == businessProfileID, nil
}

// ---- schedules ----

func (r *ScheduleRepository) Create(_ context.Context, sch *domain.Schedule) (*domain.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	data := sch.Snapshot()
	data.ID = r.s.id()
	data.Version = 1
	data.CreatedAt = r.s.now()
	data.UpdatedAt = data.CreatedAt
	r.s.schedules[data.ID] = data
	sch.MarkPersisted(data.ID, 1, data.CreatedAt, data.UpdatedAt)
	return sch, nil
}

func (r *ScheduleRepository) GetByID(_ context.Context, id, businessProfileID int64) (*domain.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	data, ok := r.s.schedules[id]
	if !ok || data.BusinessProfileID != businessProfileID {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	return domain.RestoreSchedule(data)
}

func (r *ScheduleRepository) ListByWorker(_ context.Context, workerID, businessProfileID int64) ([]*domain.Schedule, error) {
	return r.filter(func(d domain.ScheduleData) bool {
		return d.WorkerID == workerID && d.BusinessProfileID == businessProfileID
	})
}

func (r *ScheduleRepository) ListActiveByWorker(_ context.Context, workerID, businessProfileID int64, from, to time.Time) ([]*domain.Schedule, error) {
	return r.filter(func(d domain.ScheduleData) bool {
		return d.WorkerID == workerID && d.BusinessProfileID == businessProfileID && activeIn(d, from, to)
	})
}

func (r *ScheduleRepository) ListWorkersWithActiveSchedules(_ context.Context, from, to time.Time) ([]domain.WorkerRef, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := make(map[domain.WorkerRef]bool)
	result := make([]domain.WorkerRef, 0)
	for _, d := range r.s.schedules {
		ref := domain.WorkerRef{WorkerID: d.WorkerID, BusinessProfileID: d.BusinessProfileID}
		if activeIn(d, from, to) && !seen[ref] {
			seen[ref] = true
			result = append(result, ref)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WorkerID < result[j].WorkerID })
	return result, nil
}

func (r *ScheduleRepository) Save(_ context.Context, sch *domain.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	data := sch.Snapshot()
	stored, ok := r.s.schedules[data.ID]
	if !ok || stored.Version != data.Version {
		return scheduleRepo.ErrVersionConflict
	}
	data.Version++
	data.UpdatedAt = r.s.now()
	r.s.schedules[data.ID] = data
	sch.MarkPersisted(data.ID, data.Version, data.CreatedAt, data.UpdatedAt)
	return nil
}

func (r *ScheduleRepository) ClearDefaultForWorker(_ context.Context, workerID, businessProfileID, exceptID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, d := range r.s.schedules {
		if id != exceptID && d.WorkerID == workerID && d.BusinessProfileID == businessProfileID && d.IsDefault {
			d.IsDefault = false
			d.Version++
			r.s.schedules[id] = d
		}
	}
	return nil
}

func (r *ScheduleRepository) Delete(_ context.Context, id, businessProfileID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.schedules[id]
	if !ok || d.BusinessProfileID != businessProfileID {
		return scheduleRepo.ErrScheduleNotFound
	}
	delete(r.s.schedules, id)
	return nil
}

func (r *ScheduleRepository) filter(match func(domain.ScheduleData) bool) ([]*domain.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*domain.Schedule, 0)
	for _, d := range r.s.schedules {
		if !match(d) {
			continue
		}
		sch, err := domain.RestoreSchedule(d)
		if err != nil {
			return nil, err
		}
		result = append(result, sch)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result, nil
}

func activeIn(d domain.ScheduleData, from, to time.Time) bool {
	if d.EffectiveStartDate.After(to) {
		return false
	}
	return d.EffectiveEndDate == nil || !d.EffectiveEndDate.Before(from.Truncate(24*time.Hour))
}

// ---- slots ----

func (r *SlotRepository) LockWorker(ctx context.Context, _ int64) error {
	if !inTx(ctx) {
		return slotRepo.ErrNoTransaction
	}
	return nil
}

func (r *SlotRepository) Create(ctx context.Context, slot *domain.AvailabilitySlot) (*domain.AvailabilitySlot, error) {
	if err := r.CreateBatch(ctx, []*domain.AvailabilitySlot{slot}); err != nil {
		return nil, err
	}
	return slot, nil
}

func (r *SlotRepository) CreateBatch(_ context.Context, slots []*domain.AvailabilitySlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, slot := range slots {
		slot.ID = r.s.id()
		slot.CreatedAt = r.s.now()
		slot.UpdatedAt = slot.CreatedAt
		r.s.slots[slot.ID] = *slot
	}
	return nil
}

func (r *SlotRepository) GetByID(_ context.Context, id, businessProfileID int64) (*domain.AvailabilitySlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok || slot.BusinessProfileID != businessProfileID {
		return nil, slotRepo.ErrSlotNotFound
	}
	return &slot, nil
}

func (r *SlotRepository) List(_ context.Context, filter domain.SlotFilter) ([]*domain.AvailabilitySlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*domain.AvailabilitySlot, 0)
	for _, slot := range r.s.slots {
		if slot.WorkerID != filter.WorkerID || !slot.Range().Overlaps(filter.Range) {
			continue
		}
		if filter.BusinessProfileID != nil && slot.BusinessProfileID != *filter.BusinessProfileID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, slot.Status) {
			continue
		}
		c := slot
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

func (r *SlotRepository) HasCollision(_ context.Context, workerID int64, rng domain.TimeRange, statuses []domain.SlotStatus, excludeID *int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, slot := range r.s.slots {
		if slot.WorkerID != workerID || !hasStatus(statuses, slot.Status) {
			continue
		}
		if excludeID != nil && slot.ID == *excludeID {
			continue
		}
		if slot.Range().Overlaps(rng) {
			return true, nil
		}
	}
	return false, nil
}

func (r *SlotRepository) MarkBooked(_ context.Context, id, bookingID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok || slot.Status != domain.SlotStatusAvailable {
		return slotRepo.ErrSlotNotAvailable
	}
	slot.Status = domain.SlotStatusBooked
	slot.BookingID = &bookingID
	slot.UpdatedAt = r.s.now()
	r.s.slots[id] = slot
	return nil
}

func (r *SlotRepository) Release(_ context.Context, id, bookingID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok || slot.BookingID == nil || *slot.BookingID != bookingID {
		return slotRepo.ErrSlotNotFound
	}
	slot.Status = domain.SlotStatusAvailable
	slot.BookingID = nil
	slot.UpdatedAt = r.s.now()
	r.s.slots[id] = slot
	return nil
}

func (r *SlotRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok {
		return slotRepo.ErrSlotNotFound
	}
	if slot.Status == domain.SlotStatusBooked {
		return slotRepo.ErrSlotBooked
	}
	delete(r.s.slots, id)
	return nil
}

func (r *SlotRepository) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if slot, ok := r.s.slots[id]; ok && slot.Status != domain.SlotStatusBooked {
			delete(r.s.slots, id)
			n++
		}
	}
	return n, nil
}

func (r *SlotRepository) DeleteUnbookedBySchedule(_ context.Context, scheduleID int64, from time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, slot := range r.s.slots {
		if slot.GeneratingScheduleID != nil && *slot.GeneratingScheduleID == scheduleID &&
			slot.Status != domain.SlotStatusBooked && !slot.StartTime.Before(from) {
			delete(r.s.slots, id)
			n++
		}
	}
	return n, nil
}

func (r *SlotRepository) ClearGeneratingSchedule(_ context.Context, scheduleID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, slot := range r.s.slots {
		if slot.GeneratingScheduleID != nil && *slot.GeneratingScheduleID == scheduleID {
			slot.GeneratingScheduleID = nil
			slot.UpdatedAt = r.s.now()
			r.s.slots[id] = slot
			n++
		}
	}
	return n, nil
}

func hasStatus(statuses []domain.SlotStatus, status domain.SlotStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ---- bookings ----

func (r *BookingRepository) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.bookings {
		if existing.AvailabilitySlotID == b.AvailabilitySlotID && existing.IsActive() {
			return nil, bookingRepo.ErrSlotAlreadyHeld
		}
	}
	b.ID = r.s.id()
	b.CreatedAt = r.s.now()
	b.UpdatedAt = b.CreatedAt
	r.s.bookings[b.ID] = *b
	return b, nil
}

func (r *BookingRepository) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return &b, nil
}

func (r *BookingRepository) GetDetails(_ context.Context, id int64) (*domain.BookingDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return r.details(b), nil
}

func (r *BookingRepository) List(_ context.Context, filter domain.BookingFilter) (*domain.BookingPage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	filter.Normalize()

	matched := make([]domain.Booking, 0)
	for _, b := range r.s.bookings {
		if filter.BusinessProfileID > 0 && b.BusinessProfileID != filter.BusinessProfileID {
			continue
		}
		if filter.WorkerID != nil && b.WorkerID != *filter.WorkerID {
			continue
		}
		if filter.ServiceID != nil && b.ServiceID != *filter.ServiceID {
			continue
		}
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.From != nil && b.BookingStartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !b.BookingStartTime.Before(*filter.To) {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].BookingStartTime.Equal(matched[j].BookingStartTime) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].BookingStartTime.After(matched[j].BookingStartTime)
	})

	page := &domain.BookingPage{Items: make([]*domain.BookingDetails, 0), Total: len(matched), Limit: filter.Limit, Offset: filter.Offset}
	for i := filter.Offset; i < len(matched) && i < filter.Offset+filter.Limit; i++ {
		page.Items = append(page.Items, r.details(matched[i]))
	}
	return page, nil
}

func (r *BookingRepository) UpdateStatus(_ context.Context, b *domain.Booking, from domain.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.bookings[b.ID]
	if !ok || stored.Status != from {
		return bookingRepo.ErrStatusConflict
	}
	stored.Status = b.Status
	stored.NotesByVendor = b.NotesByVendor
	stored.CancellationReason = b.CancellationReason
	stored.CancelledAt = b.CancelledAt
	stored.UpdatedAt = r.s.now()
	r.s.bookings[b.ID] = stored
	b.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *BookingRepository) HasActiveForSlot(_ context.Context, slotID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, b := range r.s.bookings {
		if b.AvailabilitySlotID == slotID && b.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) details(b domain.Booking) *domain.BookingDetails {
	d := &domain.BookingDetails{Booking: b}
	if c, ok := r.s.customers[b.CustomerID]; ok {
		name, email := c[0], c[1]
		d.CustomerName = &name
		d.CustomerEmail = &email
	}
	if w, ok := r.s.workers[b.WorkerID]; ok {
		name := w.name
		d.WorkerName = &name
	}
	return d
}

// ---- settings ----

func (r *SettingsRepository) GetByScope(_ context.Context, businessProfileID int64, workerID *int64) (*domain.SlotSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.find(businessProfileID, workerID)
}

func (r *SettingsRepository) GetWithHierarchy(_ context.Context, businessProfileID, workerID int64) (*domain.SlotSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if s, err := r.find(businessProfileID, &workerID); err == nil {
		return s, nil
	}
	return r.find(businessProfileID, nil)
}

func (r *SettingsRepository) Upsert(_ context.Context, settings *domain.SlotSettings) (*domain.SlotSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, err := r.find(settings.BusinessProfileID, settings.WorkerID); err == nil {
		settings.ID = existing.ID
		settings.CreatedAt = existing.CreatedAt
	} else {
		settings.ID = r.s.id()
		settings.CreatedAt = r.s.now()
	}
	settings.UpdatedAt = r.s.now()
	r.s.settings[settings.ID] = *settings
	return settings, nil
}

func (r *SettingsRepository) ListByBusiness(_ context.Context, businessProfileID int64) ([]*domain.SlotSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*domain.SlotSettings, 0)
	for _, s := range r.s.settings {
		if s.BusinessProfileID == businessProfileID {
			c := s
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].WorkerID == nil || result[j].WorkerID == nil {
			return result[i].WorkerID == nil && result[j].WorkerID != nil
		}
		return *result[i].WorkerID < *result[j].WorkerID
	})
	return result, nil
}

func (r *SettingsRepository) MaxHorizonDays(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	days := 0
	for _, s := range r.s.settings {
		days = max(days, s.HorizonDays)
	}
	return days, nil
}

func (r *SettingsRepository) DeleteByScope(_ context.Context, businessProfileID int64, workerID *int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, err := r.find(businessProfileID, workerID)
	if err != nil {
		return err
	}
	delete(r.s.settings, existing.ID)
	return nil
}

func (r *SettingsRepository) find(businessProfileID int64, workerID *int64) (*domain.SlotSettings, error) {
	for _, s := range r.s.settings {
		if s.BusinessProfileID != businessProfileID {
			continue
		}
		if (workerID == nil) != (s.WorkerID == nil) {
			continue
		}
		if workerID != nil && *workerID != *s.WorkerID {
			continue
		}
		c := s
		return &c, nil
	}
	return nil, settingsRepo.ErrSettingsNotFound
}
