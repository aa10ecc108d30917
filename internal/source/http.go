package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"inventory/internal/domain"
)

// HTTPSource читает GET {baseURL}/inventory/products?page=&size=
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type productsResponse struct {
	Products      []map[string]any `json:"products"`
	TotalPages    int              `json:"totalPages"`
	TotalProducts int              `json:"totalProducts"`
}

// record товар в формате внешнего сервиса
type record struct {
	ID         int64  `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	Category   string `mapstructure:"category"`
	UnitPrice  string `mapstructure:"unitPrice"`
	Quantity   string `mapstructure:"quantityInStock"`
	Expiration string `mapstructure:"expirationDate"`
}

func (s *HTTPSource) FetchPage(ctx context.Context, page, size int) (*Batch, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	endpoint := fmt.Sprintf("%s/inventory/products?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	var body productsResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}

	batch := &Batch{TotalPages: body.TotalPages, TotalProducts: body.TotalProducts}
	for i, raw := range body.Products {
		p, err := mapRecord(raw)
		if err != nil {
			batch.Skipped++
			zap.L().Warn("skip upstream product", zap.Int("index", i), zap.Any("id", raw["id"]), zap.Error(err))
			continue
		}
		batch.Products = append(batch.Products, p)
	}
	return batch, nil
}

// mapRecord преобразует одну внешнюю запись. Отсутствующие поля становятся
// нулём или пустыми, Food без пригодной даты сохраняется без срока.
func mapRecord(raw map[string]any) (domain.Product, error) {
	var rec record
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &rec,
	})
	if err != nil {
		return domain.Product{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.Product{}, errors.Wrap(err, "map record")
	}

	category, ok := domain.ParseCategory(rec.Category)
	if !ok {
		return domain.Product{}, errors.Errorf("unknown category %q", rec.Category)
	}
	p := domain.Product{
		ID:       rec.ID,
		Name:     strings.TrimSpace(rec.Name),
		Category: category,
		Price:    decimal.Zero,
	}
	if rec.UnitPrice != "" {
		price, err := domain.ParsePrice(rec.UnitPrice)
		if err != nil {
			return domain.Product{}, errors.Wrap(err, "unitPrice")
		}
		p.Price = price
	}
	if rec.Quantity != "" {
		// mapstructure reads numeric strings with base prefixes, so quantity is parsed here
		stock, err := domain.ParseQuantity(rec.Quantity)
		if err != nil {
			return domain.Product{}, errors.Wrap(err, "quantityInStock")
		}
		p.Stock = stock
	}
	if rec.Expiration != "" {
		if d, err := domain.ParseDate(rec.Expiration); err == nil {
			p.Expiration = &d
		} else {
			zap.L().Warn("drop unparseable expiration", zap.Int64("id", rec.ID), zap.String("expirationDate", rec.Expiration))
		}
	}
	p.Normalize()

	if p.Name == "" {
		return domain.Product{}, errors.New("empty name")
	}
	if p.Price.IsNegative() || p.Stock < 0 {
		return domain.Product{}, errors.New("negative price or stock")
	}
	if p.Category == domain.CategoryFood && p.Expiration == nil {
		zap.L().Warn("food product without expiration", zap.Int64("id", p.ID))
	}
	return p, nil
}
