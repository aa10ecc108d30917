package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"inventory/internal/repository"
	"inventory/internal/view"
)

// Meta сведения о последней успешной загрузке
type Meta struct {
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalPages    int       `json:"totalPages"`
	TotalProducts int       `json:"totalProducts"`
	Loaded        int       `json:"loaded"`
	Skipped       int       `json:"skipped"`
	LoadedAt      time.Time `json:"loadedAt"`
}

// Loader получает страницу из Source и целиком подменяет ею хранилище
type Loader struct {
	src     Source
	store   repository.ProductRepository
	timeout time.Duration

	group singleflight.Group
	mu    sync.RWMutex
	meta  *Meta
}

func NewLoader(src Source, store repository.ProductRepository, timeout time.Duration) *Loader {
	return &Loader{src: src, store: store, timeout: timeout}
}

// Load заменяет содержимое хранилища страницей page (нумерация с 0). При любой
// ошибке хранилище не меняется, а ошибка оборачивает ErrSourceUnavailable.
// Одновременные загрузки одной страницы делят один запрос.
func (l *Loader) Load(ctx context.Context, page, size int) (*Meta, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = view.DefaultPageSize
	}
	v, err, _ := l.group.Do(fmt.Sprintf("%d/%d", page, size), func() (any, error) {
		return l.load(ctx, page, size)
	})
	if err != nil {
		return nil, err
	}
	meta := *v.(*Meta)
	return &meta, nil
}

func (l *Loader) load(ctx context.Context, page, size int) (*Meta, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	batch, err := l.src.FetchPage(ctx, page, size)
	if err != nil {
		zap.L().Error("fetch products failed", zap.Int("page", page), zap.Int("size", size), zap.Error(err))
		return nil, errors.Wrapf(ErrSourceUnavailable, "page %d: %v", page, err)
	}
	if err := l.store.Replace(ctx, batch.Products); err != nil {
		return nil, errors.Wrap(err, "replace products")
	}

	meta := &Meta{
		Page:          page,
		Size:          size,
		TotalPages:    batch.TotalPages,
		TotalProducts: batch.TotalProducts,
		Loaded:        len(batch.Products),
		Skipped:       batch.Skipped,
		LoadedAt:      time.Now().UTC(),
	}
	l.mu.Lock()
	l.meta = meta
	l.mu.Unlock()

	zap.L().Info("products loaded",
		zap.Int("page", page),
		zap.Int("loaded", meta.Loaded),
		zap.Int("skipped", meta.Skipped),
		zap.Int("total", meta.TotalProducts),
		zap.Duration("took", time.Since(start)))
	return meta, nil
}

// Meta последняя успешная загрузка или nil, пока её не было
func (l *Loader) Meta() *Meta {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.meta == nil {
		return nil
	}
	m := *l.meta
	return &m
}
