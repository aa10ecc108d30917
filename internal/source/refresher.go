package source

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Refresher перезагружает заданную страницу по cron-расписанию, например "@every 5m"
type Refresher struct {
	sched  *cron.Cron
	loader *Loader
	page   int
	size   int
}

func NewRefresher(loader *Loader, spec string, page, size int, loc *time.Location) (*Refresher, error) {
	if loc == nil {
		loc = time.Local
	}
	r := &Refresher{
		sched:  cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		loader: loader,
		page:   page,
		size:   size,
	}
	if _, err := r.sched.AddFunc(spec, r.run); err != nil {
		return nil, errors.Wrapf(err, "refresh schedule %q", spec)
	}
	return r, nil
}

func (r *Refresher) Start() { r.sched.Start() }

// Stop останавливает расписание. Возвращённый контекст завершается, когда закончится текущая загрузка.
func (r *Refresher) Stop() context.Context { return r.sched.Stop() }

func (r *Refresher) run() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	if _, err := r.loader.Load(context.Background(), r.page, r.size); err != nil {
		zap.S().Warnf("scheduled refresh failed: %s", err.Error())
	}
}
