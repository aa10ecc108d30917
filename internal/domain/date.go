package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// Date календарный день без времени суток. Нулевое значение не является
// датой, необязательная дата хранится как *Date.
type Date struct {
	t time.Time
}

// NewDate собирает дату из года, месяца и дня
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf возвращает календарный день t в его собственной зоне
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate принимает ISO-дату (2006-01-02), а если не вышло, любой формат,
// который понимает dateparse. Время суток отбрасывается.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, errors.New("empty date")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return Date{}, errors.Wrapf(err, "parse date %q", s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time возвращает полночь дня по UTC
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format(dateLayout) }

// Compare возвращает -1, 0 или +1
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// DaysUntil число календарных дней от d до o, отрицательное если o раньше d.
// Обе даты в полночь UTC, поэтому разница секунд делится на сутки без остатка.
func (d Date) DaysUntil(o Date) int {
	return int((o.t.Unix() - d.t.Unix()) / secondsPerDay)
}

// AddDays сдвигает дату на n календарных дней
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
