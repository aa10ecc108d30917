package view

import (
	"slices"

	"inventory/internal/domain"
)

// Params параметры рендера, которыми управляет пользователь
type Params struct {
	Filter   Filter `json:"filter"`
	Sort     Sort   `json:"sort"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// DefaultParams начальное состояние дашборда
func DefaultParams() Params {
	return Params{Sort: DefaultSort, Page: 1, PageSize: DefaultPageSize}
}

// Row отображаемый товар вместе с метками
type Row struct {
	domain.Product
	StockLevel StockLevel `json:"stockLevel"`
	Expiry     ExpiryTag  `json:"expiry"`
}

// Page полный результат рендера
type Page struct {
	Rows      []Row    `json:"rows"`
	Page      int      `json:"page"`
	PageSize  int      `json:"pageSize"`
	PageCount int      `json:"pageCount"`
	Matched   int      `json:"matched"`
	Filter    Filter   `json:"filter"`
	Sort      Sort     `json:"sort"`
	Metrics   []Rollup `json:"metrics"`
	Version   uint64   `json:"version"`
	Today     string   `json:"today"`
}

// Render прогоняет снимок через весь конвейер: фильтр, сортировка, страница
// и метки строк, затем сводки по нефильтрованным товарам.
func Render(products []domain.Product, version uint64, p Params, today domain.Date, t Thresholds) *Page {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	matched := SortProducts(Apply(products, p.Filter), p.Sort)
	visible, pageCount := Paginate(matched, p.PageSize, p.Page)

	rows := make([]Row, 0, len(visible))
	for _, prod := range visible {
		rows = append(rows, Row{
			Product:    prod,
			StockLevel: ClassifyStock(prod.Stock, t),
			Expiry:     ClassifyExpiry(prod.Expiration, today, t),
		})
	}
	return &Page{
		Rows:      rows,
		Page:      p.Page,
		PageSize:  p.PageSize,
		PageCount: pageCount,
		Matched:   len(matched),
		Filter:    p.Filter,
		Sort:      p.Sort,
		Metrics:   Rollups(products),
		Version:   version,
		Today:     today.String(),
	}
}

// Clone возвращает независимую копию страницы: строки, метрики и указатели
// на даты копируются, так что правки копии не видны в кэше.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	out.Rows = slices.Clone(p.Rows)
	for i := range out.Rows {
		if d := out.Rows[i].Expiration; d != nil {
			exp := *d
			out.Rows[i].Expiration = &exp
		}
		if n := out.Rows[i].Expiry.DaysLeft; n != nil {
			days := *n
			out.Rows[i].Expiry.DaysLeft = &days
		}
	}
	out.Metrics = slices.Clone(p.Metrics)
	return &out
}
