package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"

	"inventory/internal/domain"
	"inventory/internal/view"
)

type filterReq struct {
	Name         string `json:"name" form:"name"`
	Category     string `json:"category" form:"category"`
	Availability string `json:"availability" form:"availability"`
}

func (r filterReq) toFilter() (view.Filter, error) {
	f := view.Filter{Name: r.Name}
	if r.Category != "" {
		cat, ok := domain.ParseCategory(r.Category)
		if !ok {
			return view.Filter{}, errBadQuery("unknown category " + strconv.Quote(r.Category))
		}
		f.Category = cat
	}
	a, err := view.ParseAvailability(r.Availability)
	if err != nil {
		return view.Filter{}, errBadQuery(err.Error())
	}
	f.Availability = a
	return f, nil
}

type errBadQuery string

func (e errBadQuery) Error() string { return string(e) }

// parseViewParams читает параметры фильтра, сортировки и страницы из query
func parseViewParams(c *gin.Context) (view.Params, error) {
	var fr filterReq
	if err := c.ShouldBindQuery(&fr); err != nil {
		return view.Params{}, errBadQuery(err.Error())
	}
	f, err := fr.toFilter()
	if err != nil {
		return view.Params{}, err
	}
	p := view.Params{Filter: f, Sort: view.DefaultSort, Page: 1}
	if v := c.Query("sort"); v != "" {
		field, err := view.ParseSortField(v)
		if err != nil {
			return view.Params{}, errBadQuery(err.Error())
		}
		p.Sort.Field = field
	}
	dir, err := view.ParseDirection(c.Query("order"))
	if err != nil {
		return view.Params{}, errBadQuery(err.Error())
	}
	p.Sort.Direction = dir
	if v := c.Query("page"); v != "" {
		if p.Page, err = strconv.Atoi(v); err != nil {
			return view.Params{}, errBadQuery("invalid page")
		}
	}
	if v := c.Query("size"); v != "" {
		if p.PageSize, err = strconv.Atoi(v); err != nil {
			return view.Params{}, errBadQuery("invalid size")
		}
	}
	return p, nil
}

// @Summary Render dashboard
// @Description Stateless render: filter, sort, paginate and classify with the given parameters
// @Tags dashboard
// @Produce json
// @Param name query string false "Name contains"
// @Param category query string false "Food, Clothing or Electronics"
// @Param availability query string false "available or outOfStock"
// @Param sort query string false "name, category, price, stock or expirationDate"
// @Param order query string false "asc or desc"
// @Param page query int false "1-based page"
// @Param size query int false "Page size"
// @Success 200 {object} view.Page
// @Failure 400 {object} map[string]string
// @Router /dashboard [get]
func (s *Server) renderDashboard(c *gin.Context) {
	p, err := parseViewParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := s.dashboard.Render(c, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Current dashboard
// @Description Renders with the last used parameters
// @Tags dashboard
// @Produce json
// @Success 200 {object} view.Page
// @Router /dashboard/current [get]
func (s *Server) currentDashboard(c *gin.Context) {
	s.renderCurrent(c)
}

// @Summary Apply filter
// @Description Sets the filter and goes back to page 1
// @Tags dashboard
// @Accept json
// @Produce json
// @Param input body filterReq true "Filter"
// @Success 200 {object} view.Page
// @Failure 400 {object} map[string]string
// @Router /dashboard/filter [put]
func (s *Server) applyFilter(c *gin.Context) {
	var req filterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	f, err := req.toFilter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.dashboard.ApplyFilter(f)
	s.renderCurrent(c)
}

// @Summary Clear filter
// @Tags dashboard
// @Produce json
// @Success 200 {object} view.Page
// @Router /dashboard/filter [delete]
func (s *Server) clearFilter(c *gin.Context) {
	s.dashboard.ClearFilter()
	s.renderCurrent(c)
}

// @Summary Toggle sort
// @Description Same field flips the direction, another field sorts ascending
// @Tags dashboard
// @Produce json
// @Param field path string true "Sort field"
// @Success 200 {object} view.Page
// @Failure 400 {object} map[string]string
// @Router /dashboard/sort/{field} [post]
func (s *Server) toggleSort(c *gin.Context) {
	field, err := view.ParseSortField(c.Param("field"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.dashboard.ToggleSort(field)
	s.renderCurrent(c)
}

// @Summary Go to page
// @Tags dashboard
// @Produce json
// @Param page path int true "1-based page"
// @Success 200 {object} view.Page
// @Failure 400 {object} map[string]string
// @Router /dashboard/page/{page} [put]
func (s *Server) goToPage(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	s.dashboard.GoToPage(n)
	s.renderCurrent(c)
}

func (s *Server) renderCurrent(c *gin.Context) {
	page, err := s.dashboard.Current(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Rollup metrics
// @Description Stock, value and average price per category and overall, ignoring filters
// @Tags metrics
// @Produce json
// @Success 200 {array} view.Rollup
// @Router /metrics/rollups [get]
func (s *Server) rollups(c *gin.Context) {
	rs, err := s.dashboard.Rollups(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

type csvRow struct {
	ID             int64  `csv:"id"`
	Name           string `csv:"name"`
	Category       string `csv:"category"`
	Price          string `csv:"price"`
	Stock          int64  `csv:"stock"`
	ExpirationDate string `csv:"expirationDate"`
	DaysLeft       string `csv:"daysLeft"`
	Reserved       bool   `csv:"reserved"`
	StockLevel     string `csv:"stockLevel"`
	Urgency        string `csv:"urgency"`
}

// @Summary Export dashboard page as CSV
// @Tags dashboard
// @Produce text/csv
// @Param name query string false "Name contains"
// @Param category query string false "Food, Clothing or Electronics"
// @Param availability query string false "available or outOfStock"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Param page query int false "1-based page"
// @Param size query int false "Page size"
// @Success 200 {string} string
// @Failure 400 {object} map[string]string
// @Router /dashboard/export.csv [get]
func (s *Server) exportDashboard(c *gin.Context) {
	p, err := parseViewParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := s.dashboard.Render(c, p)
	if err != nil {
		writeError(c, err)
		return
	}

	rows := make([]*csvRow, 0, len(page.Rows))
	for _, r := range page.Rows {
		row := &csvRow{
			ID:         r.ID,
			Name:       r.Name,
			Category:   string(r.Category),
			Price:      r.Price.StringFixed(2),
			Stock:      r.Stock,
			Reserved:   r.Reserved,
			StockLevel: string(r.StockLevel),
			Urgency:    string(r.Expiry.Urgency),
		}
		if r.Expiration != nil {
			row.ExpirationDate = r.Expiration.String()
		}
		if r.Expiry.DaysLeft != nil {
			row.DaysLeft = strconv.Itoa(*r.Expiry.DaysLeft)
		}
		rows = append(rows, row)
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="inventory.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out))
}
