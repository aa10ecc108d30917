package view

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"inventory/internal/domain"
)

// Selector выбирает товары, по которым считается сводка
type Selector string

const (
	SelectFood        Selector = Selector(domain.CategoryFood)
	SelectClothing    Selector = Selector(domain.CategoryClothing)
	SelectElectronics Selector = Selector(domain.CategoryElectronics)
	SelectOverall     Selector = "Overall"
)

// Selectors в порядке показа на дашборде
var Selectors = []Selector{SelectFood, SelectClothing, SelectElectronics, SelectOverall}

func (s Selector) Match(p domain.Product) bool {
	return s == SelectOverall || Selector(p.Category) == s
}

// Rollup сумма остатков и стоимости. AvgPrice средняя цена, взвешенная по
// остатку, и ровно ноль, если остатка нет.
type Rollup struct {
	Selector   Selector
	TotalStock int64
	TotalValue decimal.Decimal
	AvgPrice   decimal.Decimal
}

func Aggregate(products []domain.Product, sel Selector) Rollup {
	r := Rollup{Selector: sel, TotalValue: decimal.Zero, AvgPrice: decimal.Zero}
	for _, p := range products {
		if !sel.Match(p) {
			continue
		}
		r.TotalStock += p.Stock
		r.TotalValue = r.TotalValue.Add(p.Value())
	}
	if r.TotalStock > 0 {
		r.AvgPrice = r.TotalValue.Div(decimal.NewFromInt(r.TotalStock))
	}
	return r
}

// Rollups считает сводку по каждому селектору в порядке Selectors
func Rollups(products []domain.Product) []Rollup {
	out := make([]Rollup, 0, len(Selectors))
	for _, sel := range Selectors {
		out = append(out, Aggregate(products, sel))
	}
	return out
}

// MarshalJSON выводит деньги с двумя знаками после запятой
func (r Rollup) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Selector   Selector `json:"selector"`
		TotalStock int64    `json:"totalStock"`
		TotalValue string   `json:"totalValue"`
		AvgPrice   string   `json:"avgPrice"`
	}{r.Selector, r.TotalStock, r.TotalValue.StringFixed(2), r.AvgPrice.StringFixed(2)})
}
