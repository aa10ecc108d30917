package view

// DefaultPageSize строк на странице, если размер не задан
const DefaultPageSize = 10

// Paginate возвращает страницу seq (нумерация с 1) и число страниц. Страница вне
// 1..pageCount даёт пустой срез, неположительный размер заменяется DefaultPageSize.
func Paginate[T any](seq []T, pageSize, page int) ([]T, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageCount := (len(seq) + pageSize - 1) / pageSize
	if page < 1 || page > pageCount {
		return []T{}, pageCount
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(seq))
	return seq[start:end:end], pageCount
}
