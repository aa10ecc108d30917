package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"inventory/internal/domain"
	"inventory/internal/repository"
	"inventory/internal/service"
	"inventory/internal/source"
)

func init() { gin.SetMode(gin.TestMode) }

// upstream отдаёт заранее заданный ответ вместо внешнего API склада
type upstream struct {
	mu      sync.Mutex
	status  int
	body    string
	queries []string
}

func (u *upstream) respond(status int, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status, u.body = status, body
}

func (u *upstream) lastQuery() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.queries) == 0 {
		return ""
	}
	return u.queries[len(u.queries)-1]
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.queries = append(u.queries, r.URL.RawQuery)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(u.status)
	_, _ = w.Write([]byte(u.body))
}

func setupServer(t *testing.T) (*Server, *upstream) {
	t.Helper()
	bus := EventBus.New()
	store := repository.NewMemoryStore(bus, nil)
	productsSvc := service.NewProductService(store, true)
	dashboardSvc, err := service.NewDashboardService(store, bus, service.DashboardOptions{
		PageSize:  2,
		CacheSize: 16,
		Location:  time.UTC,
		Now:       func() time.Time { return time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatal(err)
	}
	up := &upstream{status: http.StatusServiceUnavailable}
	ts := httptest.NewServer(up)
	t.Cleanup(ts.Close)
	loader := source.NewLoader(source.NewHTTPSource(ts.URL, ts.Client()), store, time.Second)
	return NewServer(productsSvc, dashboardSvc, loader), up
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

type pageResp struct {
	Rows []struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		Stock      int64  `json:"stock"`
		StockLevel string `json:"stockLevel"`
		Expiry     struct {
			Urgency  string `json:"urgency"`
			DaysLeft *int   `json:"daysLeft"`
			Note     string `json:"note"`
		} `json:"expiry"`
	} `json:"rows"`
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	Matched   int `json:"matched"`
	Sort      struct {
		Field     string `json:"field"`
		Direction string `json:"direction"`
	} `json:"sort"`
	Metrics []struct {
		Selector   string `json:"selector"`
		TotalStock int64  `json:"totalStock"`
		TotalValue string `json:"totalValue"`
		AvgPrice   string `json:"avgPrice"`
	} `json:"metrics"`
}

func seedProducts(t *testing.T, s *Server) {
	t.Helper()
	for _, body := range []map[string]any{
		{"name": "Yogurt", "category": "Food", "price": "2.00", "stock": "3", "expirationDate": "2025-06-13"},
		{"name": "Rice", "category": "Food", "price": 1.5, "stock": 12, "expirationDate": "2025-06-30"},
		{"name": "Jeans", "category": "Clothing", "price": "40", "stock": "0"},
		{"name": "Radio", "category": "Electronics", "price": "25.5", "stock": "8"},
	} {
		if w := doJSON(t, s, http.MethodPost, "/api/v1/products", body); w.Code != http.StatusCreated {
			t.Fatalf("seed %v: %d %s", body["name"], w.Code, w.Body.String())
		}
	}
}

func TestProductFlow(t *testing.T) {
	s, _ := setupServer(t)
	// create
	w := doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Milk", "category": "Food", "price": "1.20", "stock": "7", "expirationDate": "2025-06-20",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %v: %s", w.Code, w.Body.String())
	}
	// get
	w = doJSON(t, s, http.MethodGet, "/api/v1/products/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get code %v", w.Code)
	}
	// update
	w = doJSON(t, s, http.MethodPut, "/api/v1/products/1", map[string]any{
		"name": "Oat milk", "category": "Food", "price": "1.90", "stock": "9", "expirationDate": "2025-07-01",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v: %s", w.Code, w.Body.String())
	}
	if p := decode[domain.Product](t, w); p.Name != "Oat milk" || !p.Price.Equal(decimal.RequireFromString("1.9")) {
		t.Fatalf("not updated: %+v", p)
	}
	// reserve and release
	w = doJSON(t, s, http.MethodPost, "/api/v1/products/1/reserve", nil)
	if p := decode[domain.Product](t, w); w.Code != http.StatusOK || !p.Reserved || p.Stock != 0 {
		t.Fatalf("reserve: %d %+v", w.Code, p)
	}
	w = doJSON(t, s, http.MethodPost, "/api/v1/products/1/reserve", nil)
	if p := decode[domain.Product](t, w); p.Reserved || p.Stock != 10 {
		t.Fatalf("release: %+v", p)
	}
	// list
	w = doJSON(t, s, http.MethodGet, "/api/v1/products", nil)
	if list := decode[[]domain.Product](t, w); len(list) != 1 {
		t.Fatalf("list: %+v", list)
	}
	// delete
	w = doJSON(t, s, http.MethodDelete, "/api/v1/products/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete code %v", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/products/1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", w.Code)
	}
}

func TestProductErrors(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Bread", "category": "Food", "price": "abc", "stock": "2",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
	body := decode[struct {
		Fields []domain.FieldError `json:"fields"`
	}](t, w)
	if len(body.Fields) != 2 {
		t.Fatalf("expected price and expirationDate errors, got %+v", body.Fields)
	}

	if w := doJSON(t, s, http.MethodGet, "/api/v1/products/abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid id: %v", w.Code)
	}
	if w := doJSON(t, s, http.MethodDelete, "/api/v1/products/42", nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing: %v", w.Code)
	}
	if w := doJSON(t, s, http.MethodPost, "/api/v1/products/42/reserve", nil); w.Code != http.StatusNotFound {
		t.Fatalf("reserve missing: %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPut, "/api/v1/products/42", map[string]any{"name": "x", "category": "Clothing", "price": "1", "stock": "1"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("update missing: %v", w.Code)
	}
}

func TestDashboardRender(t *testing.T) {
	s, _ := setupServer(t)
	seedProducts(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/v1/dashboard?category=food&sort=stock&order=asc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("render code %v: %s", w.Code, w.Body.String())
	}
	page := decode[pageResp](t, w)
	if page.Matched != 2 || len(page.Rows) != 2 || page.Rows[0].Name != "Yogurt" {
		t.Fatalf("unexpected rows: %+v", page.Rows)
	}
	if page.Rows[0].StockLevel != "low" || page.Rows[1].StockLevel != "high" {
		t.Fatalf("stock labels: %+v", page.Rows)
	}
	if page.Rows[0].Expiry.Urgency != "urgent" || page.Rows[1].Expiry.Urgency != "safe" || *page.Rows[0].Expiry.DaysLeft != 3 {
		t.Fatalf("expiry labels: %+v", page.Rows)
	}
	food := page.Metrics[0]
	if food.Selector != "Food" || food.TotalStock != 15 || food.TotalValue != "24.00" || food.AvgPrice != "1.60" {
		t.Fatalf("food metrics: %+v", food)
	}
	if clothing := page.Metrics[1]; clothing.AvgPrice != "0.00" {
		t.Fatalf("zero-stock average: %+v", clothing)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/dashboard?availability=outOfStock", nil)
	if page := decode[pageResp](t, w); page.Matched != 1 || page.Rows[0].Name != "Jeans" {
		t.Fatalf("out of stock: %+v", page.Rows)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/dashboard?page=9", nil)
	if page := decode[pageResp](t, w); w.Code != http.StatusOK || len(page.Rows) != 0 || page.PageCount != 2 {
		t.Fatalf("page past end: %d %+v", w.Code, page)
	}

	for _, q := range []string{"sort=weight", "order=sideways", "category=Toys", "page=x", "availability=later"} {
		if w := doJSON(t, s, http.MethodGet, "/api/v1/dashboard?"+q, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", q, w.Code)
		}
	}
}

func TestDashboardSession(t *testing.T) {
	s, _ := setupServer(t)
	seedProducts(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/v1/dashboard/current", nil)
	page := decode[pageResp](t, w)
	if page.Sort.Field != "category" || page.Sort.Direction != "asc" || page.Rows[0].Name != "Jeans" {
		t.Fatalf("default view: %+v", page)
	}

	w = doJSON(t, s, http.MethodPut, "/api/v1/dashboard/page/2", nil)
	if page := decode[pageResp](t, w); page.Page != 2 {
		t.Fatalf("page: %+v", page)
	}

	// matches Yogurt, Rice and Radio
	w = doJSON(t, s, http.MethodPut, "/api/v1/dashboard/filter", map[string]any{"name": "R"})
	page = decode[pageResp](t, w)
	if page.Page != 1 || page.Matched != 3 {
		t.Fatalf("filter must reset to page 1: %+v", page)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/dashboard/sort/category", nil)
	if page := decode[pageResp](t, w); page.Sort.Direction != "desc" || page.Rows[0].Name != "Yogurt" || page.Rows[1].Name != "Rice" {
		t.Fatalf("toggle sort: %+v", page)
	}
	if w := doJSON(t, s, http.MethodPost, "/api/v1/dashboard/sort/colour", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown sort field: %v", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/v1/dashboard/filter", nil)
	if page := decode[pageResp](t, w); page.Matched != 4 {
		t.Fatalf("clear filter: %+v", page)
	}
}

func TestDashboardReflectsMutations(t *testing.T) {
	s, _ := setupServer(t)
	seedProducts(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/v1/metrics/rollups", nil)
	before := decode[[]map[string]any](t, w)
	if len(before) != 4 || before[3]["selector"] != "Overall" || before[3]["totalStock"] != float64(23) {
		t.Fatalf("rollups: %+v", before)
	}

	_ = doJSON(t, s, http.MethodGet, "/api/v1/dashboard/current", nil)
	_ = doJSON(t, s, http.MethodPost, "/api/v1/products/3/reserve", nil)
	_ = doJSON(t, s, http.MethodPost, "/api/v1/products/3/reserve", nil)

	w = doJSON(t, s, http.MethodGet, "/api/v1/dashboard/current", nil)
	page := decode[pageResp](t, w)
	if page.Rows[0].Name != "Jeans" || page.Rows[0].Stock != 10 {
		t.Fatalf("stale dashboard: %+v", page.Rows)
	}
}

func TestDashboardExportCSV(t *testing.T) {
	s, _ := setupServer(t)
	seedProducts(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/v1/dashboard/export.csv?category=Food&sort=expirationDate", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "id,name,category,price") {
		t.Fatalf("unexpected csv:\n%s", w.Body.String())
	}
	if !strings.Contains(lines[1], "Yogurt") || !strings.Contains(lines[1], "2025-06-13") || !strings.Contains(lines[1], "urgent") {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
}

func TestSourceLoad(t *testing.T) {
	s, up := setupServer(t)
	seedProducts(t, s)

	if w := doJSON(t, s, http.MethodGet, "/api/v1/source/meta", nil); w.Code != http.StatusNotFound {
		t.Fatalf("meta before load: %v", w.Code)
	}

	up.respond(http.StatusServiceUnavailable, `{"error":"down"}`)
	w := doJSON(t, s, http.MethodPost, "/api/v1/source/load", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", w.Code)
	}
	if q := up.lastQuery(); q != "page=0&size=10" {
		t.Fatalf("unexpected upstream query %q", q)
	}
	if list := decode[[]domain.Product](t, doJSON(t, s, http.MethodGet, "/api/v1/products", nil)); len(list) != 4 {
		t.Fatalf("store must keep its products after a failed load, has %d", len(list))
	}

	up.respond(http.StatusOK, `{"products":[{"id":77,"name":"Speaker","category":"Electronics","unitPrice":60,"quantityInStock":2}],"totalPages":4,"totalProducts":16}`)
	w = doJSON(t, s, http.MethodPost, "/api/v1/source/load?page=1&size=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("load: %v %s", w.Code, w.Body.String())
	}
	if q := up.lastQuery(); q != "page=1&size=5" {
		t.Fatalf("unexpected upstream query %q", q)
	}
	if meta := decode[source.Meta](t, w); meta.TotalProducts != 16 || meta.Loaded != 1 {
		t.Fatalf("meta: %+v", meta)
	}
	w = doJSON(t, s, http.MethodGet, "/api/v1/dashboard", nil)
	if page := decode[pageResp](t, w); page.Matched != 1 || page.Rows[0].ID != 77 {
		t.Fatalf("dashboard after load: %+v", page.Rows)
	}
	if w := doJSON(t, s, http.MethodPost, "/api/v1/source/load?page=-1", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("negative page: %v", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	s, _ := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/products", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("client request id not echoed")
	}
}
