package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory/internal/domain"
)

const upstreamPage = `{
  "products": [
    {"id": 1, "name": "Milk", "category": "Food", "unitPrice": 1.25, "quantityInStock": 12, "expirationDate": "2025-06-30"},
    {"id": "2", "name": "Scarf", "category": "clothing", "unitPrice": "19.90", "quantityInStock": "4", "expirationDate": "2025-01-01"},
    {"id": 3, "name": "Radio", "category": "Toys", "unitPrice": 5, "quantityInStock": 1},
    {"id": 4, "name": "Cheese", "category": "Food", "unitPrice": 7},
    {"id": 5, "name": "", "category": "Electronics", "unitPrice": 5, "quantityInStock": 1}
  ],
  "totalPages": 3,
  "totalProducts": 25
}`

func TestHTTPSource_FetchPage(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inventory/products" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamPage))
	}))
	defer srv.Close()

	batch, err := NewHTTPSource(srv.URL+"/", srv.Client()).FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotQuery != "page=0&size=10" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if batch.TotalPages != 3 || batch.TotalProducts != 25 {
		t.Fatalf("totals: %+v", batch)
	}
	if len(batch.Products) != 3 || batch.Skipped != 2 {
		t.Fatalf("expected 3 mapped and 2 skipped, got %d and %d", len(batch.Products), batch.Skipped)
	}

	milk := batch.Products[0]
	if milk.ID != 1 || milk.Price.String() != "1.25" || milk.Stock != 12 || milk.Expiration.String() != "2025-06-30" || milk.Reserved {
		t.Fatalf("milk: %+v", milk)
	}
	scarf := batch.Products[1]
	if scarf.ID != 2 || scarf.Category != domain.CategoryClothing || scarf.Stock != 4 || scarf.Expiration != nil {
		t.Fatalf("scarf: %+v", scarf)
	}
	cheese := batch.Products[2]
	if cheese.Stock != 0 || cheese.Expiration != nil {
		t.Fatalf("cheese: %+v", cheese)
	}
}

func TestHTTPSource_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL, nil).FetchPage(context.Background(), 1, 10); err == nil {
		t.Fatalf("expected error on 503")
	}
}

func TestHTTPSource_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products": [`))
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL, nil).FetchPage(context.Background(), 0, 10); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestHTTPSource_QuantityIsDecimal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products": [
			{"id": 1, "name": "Fan", "category": "Electronics", "unitPrice": "NaN", "quantityInStock": 1},
			{"id": 2, "name": "Cap", "category": "Clothing", "unitPrice": 3, "quantityInStock": "010"},
			{"id": 3, "name": "Mug", "category": "Clothing", "unitPrice": 3, "quantityInStock": "08"},
			{"id": 4, "name": "Bag", "category": "Clothing", "unitPrice": 3, "quantityInStock": 6.0},
			{"id": 5, "name": "Pin", "category": "Clothing", "unitPrice": 3, "quantityInStock": "0x10"}
		]}`))
	}))
	defer srv.Close()

	batch, err := NewHTTPSource(srv.URL, nil).FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if batch.Skipped != 2 || len(batch.Products) != 3 {
		t.Fatalf("expected NaN price and hex quantity skipped, got %d mapped %d skipped", len(batch.Products), batch.Skipped)
	}
	for i, want := range []int64{10, 8, 6} {
		if got := batch.Products[i].Stock; got != want {
			t.Fatalf("product %d: expected stock %d, got %d", batch.Products[i].ID, want, got)
		}
	}
}
