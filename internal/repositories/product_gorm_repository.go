package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Find runs a filtered, sorted and paged scan.
func (r *GORMProductRepository) Find(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(filterScope(q.Filter), sortScope(q.Sort))
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	products := make([]models.Product, 0)
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// Count returns the number of products matching f.
func (r *GORMProductRepository) Count(ctx context.Context, f ProductFilter) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(filterScope(f)).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// Create inserts a new product; the database assigns ID and CreatedAt.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes the given columns of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(product).Select(columns).Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d not found for update: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

// Delete hard-deletes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d not found for deletion: %w", id, ErrProductNotFound)
	}
	return nil
}

// IncrementPurchaseCount adds delta to purchase_count in a single statement.
func (r *GORMProductRepository) IncrementPurchaseCount(ctx context.Context, id uint, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("purchase_count", gorm.Expr("purchase_count + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to increment purchase count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}
	return nil
}

func filterScope(f ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if f.Search != nil {
			term := "%" + escapeLike(strings.ToLower(*f.Search)) + "%"
			tx = tx.Where(
				`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`,
				term, term, term, term,
			)
		}
		if f.Category != nil {
			tx = tx.Where("category = ?", *f.Category)
		}
		if f.Region != nil {
			tx = tx.Where("region = ?", *f.Region)
		}
		if f.MinPrice != nil {
			tx = tx.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			tx = tx.Where("price <= ?", *f.MaxPrice)
		}
		if f.ExcludeID != 0 {
			tx = tx.Where("id <> ?", f.ExcludeID)
		}
		return tx
	}
}

func sortScope(orders []SortOrder) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		for _, o := range orders {
			if o.Field == SortByRating {
				// NULLS LAST is not portable across sqlite and postgres.
				tx = tx.Order("rating IS NULL")
			}
			tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: string(o.Field)}, Desc: o.Desc})
		}
		return tx
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
