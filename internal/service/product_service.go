package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"inventory/internal/domain"
	"inventory/internal/repository"
)

// ProductService инкапсулирует бизнес-логику вокруг товаров: разбор формы и запись в хранилище
type ProductService struct {
	repo   repository.ProductRepository
	strict bool
}

// NewProductService создаёт сервис. В строгом режиме некорректные числа и даты отклоняются,
// в нестрогом превращаются в 0 / отсутствующую дату.
func NewProductService(repo repository.ProductRepository, strict bool) *ProductService {
	return &ProductService{repo: repo, strict: strict}
}

var ErrInvalidInput = errors.New("invalid input")

func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	p, err := s.parse(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Update заменяет все редактируемые поля; id и флаг резерва сохраняются
func (s *ProductService) Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.parse(in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.Reserved = existing.Reserved
	if err := s.repo.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) ToggleReserved(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.ToggleReserved(ctx, id)
}

// List все товары в порядке добавления
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Products, nil
}

func (s *ProductService) parse(in domain.ProductInput) (domain.Product, error) {
	verr := &domain.ValidationError{}
	var coerced []string

	p := domain.Product{Name: in.Name}
	if c, ok := domain.ParseCategory(in.Category); ok {
		p.Category = c
	} else if in.Category != "" {
		verr.Add("category", "must be one of Food, Clothing, Electronics")
	}

	switch price, err := domain.ParsePrice(in.Price.String()); {
	case in.Price.String() == "" && s.strict:
		verr.Add("price", "is required")
	case err != nil && s.strict:
		verr.Add("price", "must be a number")
	case err != nil:
		coerced = append(coerced, "price")
	default:
		p.Price = price
	}

	switch stock, err := domain.ParseQuantity(in.Stock.String()); {
	case in.Stock.String() == "" && s.strict:
		verr.Add("stock", "is required")
	case err != nil && s.strict:
		verr.Add("stock", "must be a whole number")
	case err != nil:
		coerced = append(coerced, "stock")
	default:
		p.Stock = stock
	}

	if p.Category == domain.CategoryFood && in.Expiration.String() != "" {
		d, err := domain.ParseDate(in.Expiration.String())
		switch {
		case err != nil && s.strict:
			verr.Add("expirationDate", "must be a date")
		case err != nil:
			coerced = append(coerced, "expirationDate")
		default:
			p.Expiration = &d
		}
	}

	if len(coerced) > 0 {
		zap.L().Debug("coerced malformed product input", zap.String("name", in.Name), zap.Strings("fields", coerced))
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		var invalid *domain.ValidationError
		if errors.As(err, &invalid) {
			for _, f := range invalid.Fields {
				if !verr.Has(f.Field) {
					verr.Add(f.Field, f.Message)
				}
			}
		}
	}
	if err := verr.OrNil(); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
