package service

import (
	"context"

	"salescatalog/internal/dto"
	"salescatalog/internal/model"
	"salescatalog/internal/repository"
)

// ProductService defines the business logic contract for products.
type ProductService interface {
	List(ctx context.Context) ([]dto.ProductListItem, error)
	ListPaged(ctx context.Context, pageNumber, pageSize int) (dto.Page[dto.ProductListItem], error)
	Get(ctx context.Context, id int) (*dto.ProductListItem, error)
	GetWithSales(ctx context.Context, id int) (*dto.ProductDetail, error)
	Create(ctx context.Context, req dto.ProductRequest) (*dto.ProductListItem, error)
	Update(ctx context.Context, id int, req dto.ProductRequest) (*dto.ProductListItem, error)
	Delete(ctx context.Context, id int) error
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) List(ctx context.Context) ([]dto.ProductListItem, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return toProductListItems(products), nil
}

func (s *productService) ListPaged(ctx context.Context, pageNumber, pageSize int) (dto.Page[dto.ProductListItem], error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = repository.DefaultPageSize
	}
	products, total, err := s.repo.ListPaged(ctx, pageNumber, pageSize)
	if err != nil {
		return dto.Page[dto.ProductListItem]{}, err
	}
	return dto.NewPage(toProductListItems(products), pageNumber, pageSize, total), nil
}

func (s *productService) Get(ctx context.Context, id int) (*dto.ProductListItem, error) {
	p, err := s.repo.GetProductWithSales(ctx, id)
	if err != nil {
		return nil, err
	}
	item := toProductListItem(p)
	return &item, nil
}

func (s *productService) GetWithSales(ctx context.Context, id int) (*dto.ProductDetail, error) {
	p, err := s.repo.GetProductWithSales(ctx, id)
	if err != nil {
		return nil, err
	}
	// Sales loaded through the product carry no back-reference.
	for i := range p.Sales {
		p.Sales[i].Product = p
	}
	return &dto.ProductDetail{
		ProductListItem: toProductListItem(p),
		Sales:           toSaleListItems(p.Sales),
	}, nil
}

func (s *productService) Create(ctx context.Context, req dto.ProductRequest) (*dto.ProductListItem, error) {
	p := &model.Product{
		Description: req.Description,
		SalePrice:   req.SalePrice,
		Category:    req.Category,
		Image:       req.Image,
	}
	if err := s.repo.Add(ctx, p); err != nil {
		return nil, err
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return nil, err
	}
	item := toProductListItem(p)
	return &item, nil
}

// Update replaces the product's fields and returns it with fresh aggregates.
func (s *productService) Update(ctx context.Context, id int, req dto.ProductRequest) (*dto.ProductListItem, error) {
	p := &model.Product{
		ID:          id,
		Description: req.Description,
		SalePrice:   req.SalePrice,
		Category:    req.Category,
		Image:       req.Image,
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *productService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.repo.SaveChanges(ctx)
}
