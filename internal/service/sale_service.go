package service

import (
	"context"
	"errors"
	"time"

	"salescatalog/internal/dto"
	"salescatalog/internal/model"
	"salescatalog/internal/repository"
)

// SaleService defines the business logic contract for sales.
type SaleService interface {
	List(ctx context.Context) ([]dto.SaleListItem, error)
	Get(ctx context.Context, id int) (*dto.SaleListItem, error)
	Create(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleListItem, error)
	Update(ctx context.Context, id int, req dto.UpdateSaleRequest) (*dto.SaleListItem, error)
	Delete(ctx context.Context, id int) error
	ListFiltered(ctx context.Context, f repository.SaleFilter) (dto.Page[dto.SaleListItem], error)
}

type saleService struct {
	sales    repository.SaleRepository
	products repository.ProductRepository
	now      func() time.Time
}

func NewSaleService(sales repository.SaleRepository, products repository.ProductRepository) SaleService {
	return &saleService{sales: sales, products: products, now: time.Now}
}

func (s *saleService) List(ctx context.Context) ([]dto.SaleListItem, error) {
	sales, err := s.sales.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return toSaleListItems(sales), nil
}

func (s *saleService) Get(ctx context.Context, id int) (*dto.SaleListItem, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item := toSaleListItem(sale)
	return &item, nil
}

// Create records a sale. A missing price is taken from the product's current
// price and a missing date becomes now.
func (s *saleService) Create(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleListItem, error) {
	product, err := s.products.GetByID(ctx, req.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrInvalidReference
	}
	if err != nil {
		return nil, err
	}

	sale := &model.Sale{
		ProductID: req.ProductID,
		SaleQty:   req.SaleQty,
		SalePrice: product.SalePrice,
		SaleDate:  s.now(),
	}
	if req.SalePrice != nil {
		sale.SalePrice = *req.SalePrice
	}
	if req.SaleDate != nil {
		sale.SaleDate = *req.SaleDate
	}

	if err := s.sales.Add(ctx, sale); err != nil {
		return nil, err
	}
	if err := s.sales.SaveChanges(ctx); err != nil {
		return nil, err
	}
	item := toSaleListItem(sale)
	return &item, nil
}

func (s *saleService) Update(ctx context.Context, id int, req dto.UpdateSaleRequest) (*dto.SaleListItem, error) {
	sale := &model.Sale{
		ID:        id,
		ProductID: req.ProductID,
		SaleQty:   req.SaleQty,
		SalePrice: req.SalePrice,
		SaleDate:  req.SaleDate,
	}
	if err := s.sales.Update(ctx, sale); err != nil {
		return nil, err
	}
	if err := s.sales.SaveChanges(ctx); err != nil {
		return nil, err
	}
	item := toSaleListItem(sale)
	return &item, nil
}

func (s *saleService) Delete(ctx context.Context, id int) error {
	if err := s.sales.Delete(ctx, id); err != nil {
		return err
	}
	return s.sales.SaveChanges(ctx)
}

func (s *saleService) ListFiltered(ctx context.Context, f repository.SaleFilter) (dto.Page[dto.SaleListItem], error) {
	f = f.Normalize()
	sales, total, err := s.sales.GetFilteredWithCount(ctx, f)
	if err != nil {
		return dto.Page[dto.SaleListItem]{}, err
	}
	return dto.NewPage(toSaleListItems(sales), f.Page, f.PageSize, total), nil
}
