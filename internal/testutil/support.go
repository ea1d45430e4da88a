package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
)

// FixedClock управляемое время
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock часы, показывающие now
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now текущее время часов
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает часы
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Catalog каталог услуг в памяти
type Catalog struct {
	mu       sync.Mutex
	services map[int64]catalogservice.Service
}

// NewCatalog создает каталог с услугами
func NewCatalog(services ...catalogservice.Service) *Catalog {
	c := &Catalog{services: make(map[int64]catalogservice.Service)}
	for _, s := range services {
		c.services[s.ID] = s
	}
	return c
}

// GetService услуга бизнеса или ErrServiceNotFound
func (c *Catalog) GetService(_ context.Context, businessProfileID, serviceID int64) (*catalogservice.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.services[serviceID]
	if !ok || s.BusinessProfileID != businessProfileID {
		return nil, catalogservice.ErrServiceNotFound
	}
	return &s, nil
}

// LocalRegenerator записывает запросы регенерации
type LocalRegenerator struct {
	mu    sync.Mutex
	Calls [][2]int64
	Err   error
}

// RegenerateWindow запоминает (worker, business)
func (r *LocalRegenerator) RegenerateWindow(_ context.Context, workerID, businessProfileID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, [2]int64{workerID, businessProfileID})
	return r.Err
}

// CallCount количество вызовов
func (r *LocalRegenerator) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}
