package view

import (
	"slices"
	"strings"

	"github.com/pkg/errors"

	"inventory/internal/domain"
)

type SortField string

const (
	SortByName       SortField = "name"
	SortByCategory   SortField = "category"
	SortByPrice      SortField = "price"
	SortByStock      SortField = "stock"
	SortByExpiration SortField = "expirationDate"
)

var sortFields = []SortField{SortByName, SortByCategory, SortByPrice, SortByStock, SortByExpiration}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort поле и направление сортировки
type Sort struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort сортировка нового дашборда
var DefaultSort = Sort{Field: SortByCategory, Direction: Asc}

// ParseSortField ищет поле сортировки без учёта регистра
func ParseSortField(s string) (SortField, error) {
	for _, f := range sortFields {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown sort field %q", s)
}

// ParseDirection принимает "asc" и "desc", пустая строка означает Asc
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", errors.Errorf("unknown sort direction %q", s)
}

// Toggle клик по заголовку колонки: то же поле меняет направление,
// другое поле начинает с возрастания.
func (s Sort) Toggle(field SortField) Sort {
	if s.Field == field {
		if s.Direction == Asc {
			return Sort{Field: field, Direction: Desc}
		}
		return Sort{Field: field, Direction: Asc}
	}
	return Sort{Field: field, Direction: Asc}
}

// SortProducts возвращает устойчиво отсортированную копию. Товары без срока
// годности идут после всех датированных. Неизвестное поле сохраняет порядок.
func SortProducts(products []domain.Product, s Sort) []domain.Product {
	out := slices.Clone(products)
	cmp := compareBy(s.Field)
	if s.Direction == Desc {
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp(b, a) })
	} else {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func compareBy(field SortField) func(a, b domain.Product) int {
	switch field {
	case SortByName:
		return func(a, b domain.Product) int { return strings.Compare(a.Name, b.Name) }
	case SortByCategory:
		return func(a, b domain.Product) int { return strings.Compare(string(a.Category), string(b.Category)) }
	case SortByPrice:
		return func(a, b domain.Product) int { return a.Price.Cmp(b.Price) }
	case SortByStock:
		return func(a, b domain.Product) int {
			switch {
			case a.Stock < b.Stock:
				return -1
			case a.Stock > b.Stock:
				return 1
			}
			return 0
		}
	case SortByExpiration:
		return compareExpiration
	}
	return func(domain.Product, domain.Product) int { return 0 }
}

func compareExpiration(a, b domain.Product) int {
	switch {
	case a.Expiration == nil && b.Expiration == nil:
		return 0
	case a.Expiration == nil:
		return 1
	case b.Expiration == nil:
		return -1
	}
	return a.Expiration.Compare(*b.Expiration)
}
