// Package view строит содержимое дашборда из снимка товаров: отфильтрованные,
// отсортированные и разбитые на страницы строки с метками остатка и срока
// годности, а также сводки по категориям. Все функции чистые.
package view

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"

	"inventory/internal/domain"
)

// Availability отбирает товары по наличию на складе
type Availability string

const (
	AvailabilityAny Availability = ""
	Available       Availability = "available"
	OutOfStock      Availability = "outOfStock"
)

// ParseAvailability принимает "", "available" и "outOfStock" без учёта регистра
func ParseAvailability(s string) (Availability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any":
		return AvailabilityAny, nil
	case "available":
		return Available, nil
	case "outofstock", "out_of_stock", "out-of-stock":
		return OutOfStock, nil
	}
	return AvailabilityAny, errors.Errorf("unknown availability %q", s)
}

// Filter критерии поиска пользователя. Незаданное поле подходит под всё.
type Filter struct {
	Name         string          `json:"name,omitempty"`
	Category     domain.Category `json:"category,omitempty"`
	Availability Availability    `json:"availability,omitempty"`
}

func (f Filter) IsZero() bool { return f == Filter{} }

// Apply оставляет товары, подходящие под все заданные критерии, в исходном порядке.
// Имя ищется как подстрока без учёта регистра с полным Unicode case folding.
func Apply(products []domain.Product, f Filter) []domain.Product {
	fold := cases.Fold()
	needle := fold.String(f.Name)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if needle != "" && !strings.Contains(fold.String(p.Name), needle) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		switch f.Availability {
		case Available:
			if p.Stock <= 0 {
				continue
			}
		case OutOfStock:
			if p.Stock != 0 {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
