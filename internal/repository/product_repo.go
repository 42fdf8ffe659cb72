package repository

import (
	"context"

	"salescatalog/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// so they can be tested against in-memory stubs.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]model.Product, error)
	GetByID(ctx context.Context, id int) (*model.Product, error)
	Add(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id int) error
	SaveChanges(ctx context.Context) error

	// GetProductWithSales returns the product with Sales loaded, newest first.
	GetProductWithSales(ctx context.Context, id int) (*model.Product, error)
	// ListPaged returns one page ordered by id, with Sales loaded, and the
	// total number of products.
	ListPaged(ctx context.Context, page, pageSize int) ([]model.Product, int64, error)
	Count(ctx context.Context) (int64, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func preloadSales(db *gorm.DB) *gorm.DB {
	return db.Order("sale_date DESC, id ASC")
}

func (r *productRepo) GetAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Sales", preloadSales).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *productRepo) GetProductWithSales(ctx context.Context, id int) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Sales", preloadSales).
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Add inserts p. A zero ID is assigned by the store; a non-zero ID is kept.
func (r *productRepo) Add(ctx context.Context, p *model.Product) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(p).Error
	})
}

// Update replaces every mutable column of the product with p.ID.
func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		var existing model.Product
		if err := tx.Select("id", "created_at").First(&existing, p.ID).Error; err != nil {
			return err
		}
		p.CreatedAt = existing.CreatedAt
		return tx.Omit(clause.Associations).Save(p).Error
	})
}

// Delete removes the product. Products that still have sales are kept and
// ErrProductHasSales is returned.
func (r *productRepo) Delete(ctx context.Context, id int) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		var sales int64
		if err := tx.Model(&model.Sale{}).Where("product_id = ?", id).Count(&sales).Error; err != nil {
			return err
		}
		if sales > 0 {
			return ErrProductHasSales
		}
		res := tx.Delete(&model.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *productRepo) SaveChanges(ctx context.Context) error {
	return flush(ctx, r.db)
}

func (r *productRepo) ListPaged(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	products := []model.Product{}
	offset, ok := pageOffset(page, pageSize)
	if !ok {
		return products, total, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Sales", preloadSales).
		Order("id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&products).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return products, total, nil
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}
