package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"salescatalog/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultPageSize = 10

// SaleFilter selects sales for the paged listing. Nil fields are not applied;
// both date bounds are inclusive.
type SaleFilter struct {
	ProductID *int
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// Normalize clamps Page below 1 to 1 and PageSize below 1 to DefaultPageSize.
func (f SaleFilter) Normalize() SaleFilter {
	f.Page, f.PageSize = clampPage(f.Page, f.PageSize)
	return f
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// pageOffset returns the rows to skip for a clamped page. ok is false when
// (page-1)*pageSize does not fit in an int: such a page is past any result set.
func pageOffset(page, pageSize int) (offset int, ok bool) {
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

func (f SaleFilter) scope(db *gorm.DB) *gorm.DB {
	if f.ProductID != nil {
		db = db.Where("product_id = ?", *f.ProductID)
	}
	if f.StartDate != nil {
		db = db.Where("sale_date >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		db = db.Where("sale_date <= ?", f.EndDate.UTC())
	}
	return db
}

// SaleRepository defines the data access contract for sales. Every sale it
// returns has Product populated.
type SaleRepository interface {
	GetAll(ctx context.Context) ([]model.Sale, error)
	GetByID(ctx context.Context, id int) (*model.Sale, error)
	Add(ctx context.Context, s *model.Sale) error
	Update(ctx context.Context, s *model.Sale) error
	Delete(ctx context.Context, id int) error
	SaveChanges(ctx context.Context) error

	// GetFiltered returns one page of sales matching f, newest first.
	GetFiltered(ctx context.Context, f SaleFilter) ([]model.Sale, error)
	// GetFilteredWithCount is GetFiltered plus the number of matching sales
	// before paging.
	GetFilteredWithCount(ctx context.Context, f SaleFilter) ([]model.Sale, int64, error)
	Count(ctx context.Context) (int64, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) GetAll(ctx context.Context) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Preload("Product").
		Order("sale_date DESC, id ASC").
		Find(&sales).Error
	if err != nil {
		return nil, translate(err)
	}
	return sales, nil
}

func (r *saleRepo) GetByID(ctx context.Context, id int) (*model.Sale, error) {
	var s model.Sale
	if err := r.db.WithContext(ctx).Preload("Product").First(&s, id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Add inserts s after checking its product exists. A zero ID is assigned by
// the store; a non-zero ID is kept.
func (r *saleRepo) Add(ctx context.Context, s *model.Sale) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		product, err := lookupProduct(tx, s.ProductID)
		if err != nil {
			return err
		}
		s.SaleDate = normalizeSaleDate(s.SaleDate)
		if err := tx.Omit(clause.Associations).Create(s).Error; err != nil {
			return err
		}
		s.Product = product
		return nil
	})
}

// Update replaces every mutable column of the sale with s.ID. The product
// reference is checked again.
func (r *saleRepo) Update(ctx context.Context, s *model.Sale) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		var existing model.Sale
		if err := tx.Select("id", "created_at").First(&existing, s.ID).Error; err != nil {
			return err
		}
		product, err := lookupProduct(tx, s.ProductID)
		if err != nil {
			return err
		}
		s.CreatedAt = existing.CreatedAt
		s.SaleDate = normalizeSaleDate(s.SaleDate)
		if err := tx.Omit(clause.Associations).Save(s).Error; err != nil {
			return err
		}
		s.Product = product
		return nil
	})
}

func (r *saleRepo) Delete(ctx context.Context, id int) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Delete(&model.Sale{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *saleRepo) SaveChanges(ctx context.Context) error {
	return flush(ctx, r.db)
}

func (r *saleRepo) GetFiltered(ctx context.Context, f SaleFilter) ([]model.Sale, error) {
	f = f.Normalize()
	return r.page(ctx, f)
}

func (r *saleRepo) GetFilteredWithCount(ctx context.Context, f SaleFilter) ([]model.Sale, int64, error) {
	f = f.Normalize()

	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Sale{}).
		Scopes(f.scope).
		Count(&total).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	if total == 0 {
		return []model.Sale{}, 0, nil
	}

	sales, err := r.page(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *saleRepo) page(ctx context.Context, f SaleFilter) ([]model.Sale, error) {
	sales := []model.Sale{}
	offset, ok := pageOffset(f.Page, f.PageSize)
	if !ok {
		return sales, nil
	}
	err := r.db.WithContext(ctx).
		Scopes(f.scope).
		Preload("Product").
		Order("sale_date DESC, id ASC").
		Offset(offset).
		Limit(f.PageSize).
		Find(&sales).Error
	if err != nil {
		return nil, translate(err)
	}
	return sales, nil
}

func (r *saleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Sale{}).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func lookupProduct(tx *gorm.DB, id int) (*model.Product, error) {
	var p model.Product
	err := tx.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidReference
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// normalizeSaleDate stores every sale in UTC at microsecond precision so
// ordering and range comparisons agree across drivers.
func normalizeSaleDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
