package repository

import (
	"context"
	"errors"

	"inventory/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// TopicChanged публикуется в шину после каждой успешной мутации хранилища.
// Аргумент обработчика: новая версия (uint64).
const TopicChanged = "inventory:changed"

// Snapshot копия всех записей в порядке вставки и версия хранилища на момент снятия
type Snapshot struct {
	Version  uint64
	Products []domain.Product
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	ToggleReserved(ctx context.Context, id int64) (*domain.Product, error)
	Snapshot(ctx context.Context) (Snapshot, error)
	Replace(ctx context.Context, products []domain.Product) error
}
