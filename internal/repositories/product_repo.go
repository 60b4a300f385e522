package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
)

// ErrProductNotFound is returned when no product has the requested ID.
var ErrProductNotFound = errors.New("product not found")

// SortField is a column a product scan can be ordered by.
type SortField string

const (
	SortByID            SortField = "id"
	SortByPrice         SortField = "price"
	SortByCreatedAt     SortField = "created_at"
	SortByName          SortField = "name"
	SortByPurchaseCount SortField = "purchase_count"
	SortByRating        SortField = "rating"
)

// SortOrder orders a scan by one column. Rating sorts put unrated products last.
type SortOrder struct {
	Field SortField
	Desc  bool
}

// ProductFilter combines all set conditions with AND.
type ProductFilter struct {
	// Search matches case-insensitively as a substring of name, brand, description or tags.
	Search    *string
	Category  *string
	Region    *string
	MinPrice  *float64
	MaxPrice  *float64
	ExcludeID uint
}

// ProductQuery is a filtered, ordered and paged scan. A zero Limit means no limit.
type ProductQuery struct {
	Filter ProductFilter
	Sort   []SortOrder
	Offset int
	Limit  int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Find(ctx context.Context, q ProductQuery) ([]models.Product, error)
	Count(ctx context.Context, f ProductFilter) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes only the named columns of product.
	Update(ctx context.Context, product *models.Product, columns []string) error
	Delete(ctx context.Context, id uint) error
	IncrementPurchaseCount(ctx context.Context, id uint, delta int) error
}
