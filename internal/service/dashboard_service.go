package service

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"inventory/internal/domain"
	"inventory/internal/repository"
	"inventory/internal/view"
)

// DashboardOptions параметры отображения дашборда
type DashboardOptions struct {
	Thresholds view.Thresholds
	PageSize   int
	// CacheSize число закэшированных страниц; 0 отключает кэш
	CacheSize int
	Location  *time.Location
	Now       func() time.Time
}

// DashboardService собирает страницу дашборда из снимка хранилища и хранит последние параметры просмотра
type DashboardService struct {
	repo       repository.ProductRepository
	thresholds view.Thresholds
	pageSize   int
	loc        *time.Location
	now        func() time.Time
	cache      *lru.Cache

	mu     sync.Mutex
	params view.Params
}

type renderKey struct {
	version uint64
	params  view.Params
	today   string
}

// NewDashboardService создаёт оркестратор. Если передана шина, кэш страниц сбрасывается
// по каждому repository.TopicChanged.
func NewDashboardService(repo repository.ProductRepository, bus EventBus.Bus, opts DashboardOptions) (*DashboardService, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = view.DefaultPageSize
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Thresholds == (view.Thresholds{}) {
		opts.Thresholds = view.DefaultThresholds()
	}
	s := &DashboardService{
		repo:       repo,
		thresholds: opts.Thresholds,
		pageSize:   opts.PageSize,
		loc:        opts.Location,
		now:        opts.Now,
	}
	s.params = s.defaults()

	if opts.CacheSize > 0 {
		cache, err := lru.New(opts.CacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "dashboard cache")
		}
		s.cache = cache
		if bus != nil {
			if err := bus.Subscribe(repository.TopicChanged, s.invalidate); err != nil {
				return nil, errors.Wrap(err, "subscribe to store changes")
			}
		}
	}
	return s, nil
}

// Today текущая дата в настроенном часовом поясе
func (s *DashboardService) Today() domain.Date {
	return domain.DateOf(s.now().In(s.loc))
}

func (s *DashboardService) Thresholds() view.Thresholds { return s.thresholds }

// Render строит страницу по переданным параметрам, не трогая сохранённые
// Вызывающий получает собственную копию страницы, кэш ею не разделяется.
func (s *DashboardService) Render(ctx context.Context, p view.Params) (*view.Page, error) {
	p = s.normalize(p)
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	today := s.Today()

	key := renderKey{version: snap.Version, params: p, today: today.String()}
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.(*view.Page).Clone(), nil
		}
	}
	page := view.Render(snap.Products, snap.Version, p, today, s.thresholds)
	if s.cache != nil {
		s.cache.Add(key, page)
		return page.Clone(), nil
	}
	return page, nil
}

// Current рендерит с последними использованными параметрами
func (s *DashboardService) Current(ctx context.Context) (*view.Page, error) {
	return s.Render(ctx, s.Params())
}

func (s *DashboardService) Params() view.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// ApplyFilter устанавливает фильтр и возвращает на первую страницу
func (s *DashboardService) ApplyFilter(f view.Filter) view.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Filter = f
	s.params.Page = 1
	return s.params
}

func (s *DashboardService) ClearFilter() view.Params {
	return s.ApplyFilter(view.Filter{})
}

// ToggleSort как клик по заголовку колонки
func (s *DashboardService) ToggleSort(field view.SortField) view.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Sort = s.params.Sort.Toggle(field)
	return s.params
}

// GoToPage номер не проверяется: страница вне диапазона просто пустая
func (s *DashboardService) GoToPage(page int) view.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Page = page
	return s.params
}

// Reset возвращает параметры к начальному состоянию
func (s *DashboardService) Reset() view.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = s.defaults()
	return s.params
}

func (s *DashboardService) defaults() view.Params {
	p := view.DefaultParams()
	p.PageSize = s.pageSize
	return p
}

func (s *DashboardService) normalize(p view.Params) view.Params {
	if p.PageSize <= 0 {
		p.PageSize = s.pageSize
	}
	if p.Sort.Field == "" {
		p.Sort = view.DefaultSort
	}
	if p.Sort.Direction == "" {
		p.Sort.Direction = view.Asc
	}
	return p
}

func (s *DashboardService) invalidate(version uint64) {
	s.cache.Purge()
	zap.L().Debug("dashboard cache purged", zap.Uint64("version", version))
}

// Rollups метрики по всем товарам без учёта фильтра
func (s *DashboardService) Rollups(ctx context.Context) ([]view.Rollup, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return view.Rollups(snap.Products), nil
}
