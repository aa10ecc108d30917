// Package source загружает товары из внешнего сервиса склада в хранилище.
package source

import (
	"context"
	"errors"

	"inventory/internal/domain"
)

//go:generate mockgen -source=source.go -destination=mock_source_test.go -package=source

// ErrSourceUnavailable возвращается, если страницу не удалось получить или
// разобрать. Хранилище сохраняет прежнее содержимое.
var ErrSourceUnavailable = errors.New("source unavailable")

// Batch одна полученная страница записей
type Batch struct {
	Products      []domain.Product
	TotalPages    int
	TotalProducts int
	// Skipped число записей, которые не удалось превратить в товар
	Skipped int
}

// Source получает страницу товаров (нумерация с 0)
type Source interface {
	FetchPage(ctx context.Context, page, size int) (*Batch, error)
}
