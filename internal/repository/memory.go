package repository

import (
	"context"
	"sync"

	"github.com/asaskevich/EventBus"

	"inventory/internal/domain"
)

// MemoryStore in-memory хранилище товаров с сохранением порядка вставки
type MemoryStore struct {
	mu       sync.RWMutex
	products []domain.Product
	index    map[int64]int
	version  uint64
	ids      IDGenerator
	bus      EventBus.Bus
}

// NewMemoryStore создаёт пустое хранилище. bus может быть nil, тогда изменения никуда не публикуются;
// ids == nil означает последовательный счётчик.
func NewMemoryStore(bus EventBus.Bus, ids IDGenerator) *MemoryStore {
	if ids == nil {
		ids = NewSequenceIDs()
	}
	return &MemoryStore{
		index: make(map[int64]int),
		ids:   ids,
		bus:   bus,
	}
}

// Ensure interfaces
var _ ProductRepository = (*MemoryStore)(nil)

func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	id := m.ids.Next()
	for _, taken := m.index[id]; taken || id <= 0; _, taken = m.index[id] {
		id = m.ids.Next()
	}
	p.ID = id
	p.Reserved = false
	p.Normalize()
	m.index[p.ID] = len(m.products)
	m.products = append(m.products, cloneProduct(*p))
	v := m.bump()
	m.mu.Unlock()

	m.publish(v)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := cloneProduct(m.products[i])
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	i, ok := m.index[p.ID]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	p.Normalize()
	m.products[i] = cloneProduct(*p)
	v := m.bump()
	m.mu.Unlock()

	m.publish(v)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	i, ok := m.index[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.products = append(m.products[:i], m.products[i+1:]...)
	delete(m.index, id)
	for j := i; j < len(m.products); j++ {
		m.index[m.products[j].ID] = j
	}
	v := m.bump()
	m.mu.Unlock()

	m.publish(v)
	return nil
}

// ToggleReserved переключает резерв: при резервировании остаток обнуляется,
// при снятии резерва становится domain.RestockQuantity.
func (m *MemoryStore) ToggleReserved(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	i, ok := m.index[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	m.products[i].ToggleReserved()
	cp := cloneProduct(m.products[i])
	v := m.bump()
	m.mu.Unlock()

	m.publish(v)
	return &cp, nil
}

func (m *MemoryStore) Snapshot(ctx context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Product, len(m.products))
	for i, p := range m.products {
		out[i] = cloneProduct(p)
	}
	return Snapshot{Version: m.version, Products: out}, nil
}

// Replace атомарно заменяет всю коллекцию (загрузка из источника).
// id источника сохраняются, дубликаты отбрасываются (побеждает первый),
// записям без id выдаётся новый.
func (m *MemoryStore) Replace(ctx context.Context, products []domain.Product) error {
	m.mu.Lock()
	for _, p := range products {
		if p.ID > 0 {
			m.ids.Observe(p.ID)
		}
	}
	next := make([]domain.Product, 0, len(products))
	index := make(map[int64]int, len(products))
	for _, p := range products {
		if p.ID <= 0 {
			p.ID = m.ids.Next()
			for _, taken := index[p.ID]; taken; _, taken = index[p.ID] {
				p.ID = m.ids.Next()
			}
		} else if _, dup := index[p.ID]; dup {
			continue
		}
		p.Normalize()
		index[p.ID] = len(next)
		next = append(next, cloneProduct(p))
	}
	m.products = next
	m.index = index
	v := m.bump()
	m.mu.Unlock()

	m.publish(v)
	return nil
}

// Version текущая версия без копирования данных
func (m *MemoryStore) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// bump must be called with the write lock held.
func (m *MemoryStore) bump() uint64 {
	m.version++
	return m.version
}

func (m *MemoryStore) publish(version uint64) {
	if m.bus != nil {
		m.bus.Publish(TopicChanged, version)
	}
}

func cloneProduct(p domain.Product) domain.Product {
	if p.Expiration != nil {
		d := *p.Expiration
		p.Expiration = &d
	}
	return p
}
