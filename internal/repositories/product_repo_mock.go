package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It mirrors the GORM repository's filter and ordering semantics.
type MockProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
	}
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}
	p := cloneProduct(product)
	return &p, nil
}

// Find returns the matching products, sorted and paged.
func (r *MockProductRepository) Find(_ context.Context, q ProductQuery) ([]models.Product, error) {
	r.mu.RLock()
	matched := r.match(q.Filter)
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return less(matched[i], matched[j], q.Sort)
	})

	if q.Offset >= len(matched) {
		return []models.Product{}, nil
	}
	matched = matched[max(q.Offset, 0):]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// Count returns the number of products matching f.
func (r *MockProductRepository) Count(_ context.Context, f ProductFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.match(f))), nil
}

// Create adds a new product and assigns its ID and CreatedAt.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	product.ID = r.nextID
	product.CreatedAt = time.Now().UTC()
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Update modifies an existing product. Only the listed columns are copied.
func (r *MockProductRepository) Update(_ context.Context, product *models.Product, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %d not found for update: %w", product.ID, ErrProductNotFound)
	}
	for _, col := range columns {
		copyColumn(&stored, product, col)
	}
	r.products[product.ID] = cloneProduct(stored)
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %d not found for deletion: %w", id, ErrProductNotFound)
	}
	delete(r.products, id)
	return nil
}

// IncrementPurchaseCount adds delta to a product's purchase_count.
func (r *MockProductRepository) IncrementPurchaseCount(_ context.Context, id uint, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}
	product.PurchaseCount += delta
	r.products[id] = product
	return nil
}

// match must be called with r.mu held.
func (r *MockProductRepository) match(f ProductFilter) []models.Product {
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(p, f) {
			out = append(out, cloneProduct(p))
		}
	}
	// Map iteration is random; fix a base order so ties are stable.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matches(p models.Product, f ProductFilter) bool {
	if f.Search != nil {
		term := strings.ToLower(*f.Search)
		found := false
		for _, field := range []*string{&p.Name, p.Brand, p.Description, p.Tags} {
			if field != nil && strings.Contains(strings.ToLower(*field), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Category != nil && (p.Category == nil || *p.Category != *f.Category) {
		return false
	}
	if f.Region != nil && (p.Region == nil || *p.Region != *f.Region) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.ExcludeID != 0 && p.ID == f.ExcludeID {
		return false
	}
	return true
}

func less(a, b models.Product, orders []SortOrder) bool {
	for _, o := range orders {
		c := compare(a, b, o.Field)
		if c == 0 {
			continue
		}
		if o.Field == SortByRating && (a.Rating == nil || b.Rating == nil) {
			// unrated last in either direction
			return b.Rating == nil
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compare(a, b models.Product, field SortField) int {
	switch field {
	case SortByPrice:
		return cmpOrdered(a.Price, b.Price)
	case SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortByName:
		return strings.Compare(a.Name, b.Name)
	case SortByPurchaseCount:
		return cmpOrdered(a.PurchaseCount, b.PurchaseCount)
	case SortByRating:
		switch {
		case a.Rating == nil && b.Rating == nil:
			return 0
		case a.Rating == nil:
			return -1
		case b.Rating == nil:
			return 1
		}
		return cmpOrdered(*a.Rating, *b.Rating)
	default:
		return cmpOrdered(a.ID, b.ID)
	}
}

func cmpOrdered[T int | uint | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func copyColumn(dst, src *models.Product, col string) {
	switch col {
	case "name":
		dst.Name = src.Name
	case "description":
		dst.Description = src.Description
	case "brand":
		dst.Brand = src.Brand
	case "category":
		dst.Category = src.Category
	case "price":
		dst.Price = src.Price
	case "region":
		dst.Region = src.Region
	case "tags":
		dst.Tags = src.Tags
	case "image_url":
		dst.ImageURL = src.ImageURL
	case "rating":
		dst.Rating = src.Rating
	case "stock":
		dst.Stock = src.Stock
	case "warranty":
		dst.Warranty = src.Warranty
	case "size":
		dst.Size = src.Size
	case "material":
		dst.Material = src.Material
	case "expiry_date":
		dst.ExpiryDate = src.ExpiryDate
	case "pack_size":
		dst.PackSize = src.PackSize
	case "views":
		dst.Views = src.Views
	case "purchase_count":
		dst.PurchaseCount = src.PurchaseCount
	}
}

func cloneProduct(p models.Product) models.Product {
	out := p
	out.Description = clonePtr(p.Description)
	out.Brand = clonePtr(p.Brand)
	out.Category = clonePtr(p.Category)
	out.Region = clonePtr(p.Region)
	out.Tags = clonePtr(p.Tags)
	out.ImageURL = clonePtr(p.ImageURL)
	out.Rating = clonePtr(p.Rating)
	out.Warranty = clonePtr(p.Warranty)
	out.Size = clonePtr(p.Size)
	out.Material = clonePtr(p.Material)
	out.ExpiryDate = clonePtr(p.ExpiryDate)
	out.PackSize = clonePtr(p.PackSize)
	return out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
