package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category категория товара (фиксированный набор)
type Category string

const (
	CategoryFood        Category = "Food"
	CategoryClothing    Category = "Clothing"
	CategoryElectronics Category = "Electronics"
)

// Categories все категории в порядке отображения
var Categories = []Category{CategoryFood, CategoryClothing, CategoryElectronics}

// RestockQuantity остаток, который возвращается товару при снятии резерва
const RestockQuantity int64 = 10

// Valid сообщает, входит ли c в известный набор категорий
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory ищет категорию без учёта регистра и пробелов по краям
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, k := range Categories {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return "", false
}

// Product товар на складе
type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Category   Category        `json:"category"`
	Price      decimal.Decimal `json:"price"`
	Stock      int64           `json:"stock"`
	Expiration *Date           `json:"expirationDate,omitempty"`
	Reserved   bool            `json:"reserved"`
}

// Normalize убирает срок годности у всех категорий, кроме Food
func (p *Product) Normalize() {
	if p.Category != CategoryFood {
		p.Expiration = nil
	}
}

// Validate проверяет инварианты записи и возвращает все нарушенные поля
func (p Product) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		verr.Add("name", "is required")
	}
	if !p.Category.Valid() {
		verr.Add("category", "must be one of Food, Clothing, Electronics")
	}
	if p.Price.IsNegative() {
		verr.Add("price", "must not be negative")
	}
	if p.Stock < 0 {
		verr.Add("stock", "must not be negative")
	}
	if p.Category == CategoryFood && p.Expiration == nil {
		verr.Add("expirationDate", "is required for Food")
	}
	return verr.OrNil()
}

// ToggleReserved переключает резерв. Резерв обнуляет остаток, снятие резерва
// возвращает фиксированную партию RestockQuantity.
func (p *Product) ToggleReserved() {
	p.Reserved = !p.Reserved
	if p.Reserved {
		p.Stock = 0
	} else {
		p.Stock = RestockQuantity
	}
}

// Value стоимость остатка: цена, умноженная на количество
func (p Product) Value() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(p.Stock))
}

// ProductInput поля товара в том виде, в каком их присылает форма. Числа и
// даты приходят текстом и разбираются в сервисном слое.
type ProductInput struct {
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Price      FormValue `json:"price"`
	Stock      FormValue `json:"stock"`
	Expiration FormValue `json:"expirationDate"`
}
