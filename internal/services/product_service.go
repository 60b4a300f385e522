package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"catalog/internal/cache"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher delivers product change notifications.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// ProductServiceConfig holds the tunables of ProductService. Zero values take defaults.
type ProductServiceConfig struct {
	CacheTTL             time.Duration
	TrendingWindow       int
	SuggestionPriceRange float64
	SuggestionLimit      int
}

func (c ProductServiceConfig) withDefaults() ProductServiceConfig {
	if c.CacheTTL <= 0 {
		c.CacheTTL = cache.DefaultTTL
	}
	if c.TrendingWindow <= 0 {
		c.TrendingWindow = 10
	}
	if c.SuggestionPriceRange <= 0 {
		c.SuggestionPriceRange = 500
	}
	if c.SuggestionLimit <= 0 {
		c.SuggestionLimit = 5
	}
	return c
}

// SuggestionOptions narrows a suggestion query. Nil or non-positive values take the configured defaults.
type SuggestionOptions struct {
	PriceRange *float64
	Limit      int
}

// ProductService is the catalog facade: it composes the query planner, the
// product store and the advisory cache, and keeps the cache coherent on writes.
type ProductService struct {
	repo      repositories.ProductRepository
	cache     cache.Cache
	planner   *QueryPlanner
	validator *FieldValidator
	events    EventPublisher
	logger    *zap.Logger
	cfg       ProductServiceConfig
}

// NewProductService creates a new ProductService. A nil cache disables
// caching, a nil events publisher disables notifications.
func NewProductService(repo repositories.ProductRepository, c cache.Cache, planner *QueryPlanner, events EventPublisher, logger *zap.Logger, cfg ProductServiceConfig) *ProductService {
	if c == nil {
		c = cache.NopCache{}
	}
	if planner == nil {
		planner = NewQueryPlanner(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		repo:      repo,
		cache:     c,
		planner:   planner,
		validator: NewFieldValidator(),
		events:    events,
		logger:    logger,
		cfg:       cfg.withDefaults(),
	}
}

// CreateProduct validates fields and inserts a new product.
func (s *ProductService) CreateProduct(ctx context.Context, fields models.ProductFields) (*models.Product, error) {
	if err := s.validator.Validate(fields, true); err != nil {
		return nil, err
	}

	product := &models.Product{}
	fields.ApplyTo(product)
	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("failed to create product", zap.String("name", product.Name), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}

	s.invalidate(ctx)
	s.publish(ctx, models.EventProductCreated, product.ID, product)
	return product, nil
}

// GetProductByID retrieves a single product. Point reads are never cached.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(id, err)
	}
	return product, nil
}

// ListProducts returns one page of a filtered listing, served from the cache when possible.
func (s *ProductService) ListProducts(ctx context.Context, req ListRequest) (*models.ProductPage, error) {
	plan := s.planner.Plan(req)

	var page models.ProductPage
	if s.readCache(ctx, plan.Key, &page) {
		return &page, nil
	}

	total, err := s.repo.Count(ctx, plan.Query.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: count products: %w", ErrStoreUnavailable, err)
	}
	items, err := s.repo.Find(ctx, plan.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %w", ErrStoreUnavailable, err)
	}
	if items == nil {
		items = []models.Product{}
	}

	page = models.ProductPage{Total: total, Items: items}
	s.writeCache(ctx, plan.Key, page)
	return &page, nil
}

// UpdateProduct applies the set slots of fields to an existing product.
// Unset slots are left untouched; an empty mask writes nothing.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, fields models.ProductFields) (*models.Product, error) {
	if err := s.validator.Validate(fields, false); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(id, err)
	}

	columns := fields.ApplyTo(product)
	if len(columns) == 0 {
		return product, nil
	}
	if err := s.repo.Update(ctx, product, columns); err != nil {
		return nil, storeError(id, err)
	}

	s.invalidate(ctx)
	s.publish(ctx, models.EventProductUpdated, product.ID, product)
	return product, nil
}

// DeleteProduct removes a product.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return storeError(id, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(id, err)
	}

	s.invalidate(ctx)
	s.publish(ctx, models.EventProductDeleted, id, nil)
	return nil
}

// TrendingProducts returns up to limit products by purchase count, highest
// first. The cache holds a fixed-size window under TrendingKey; hit reports
// whether the answer came from it.
func (s *ProductService) TrendingProducts(ctx context.Context, limit int) (items []models.Product, hit bool, err error) {
	window := s.cfg.TrendingWindow
	if limit <= 0 {
		limit = window
	}
	if limit > window {
		items, err = s.topSellers(ctx, limit)
		return items, false, err
	}

	var cached []models.Product
	if s.readCache(ctx, TrendingKey, &cached) {
		return cached[:min(limit, len(cached))], true, nil
	}

	top, err := s.topSellers(ctx, window)
	if err != nil {
		return nil, false, err
	}
	s.writeCache(ctx, TrendingKey, top)
	return top[:min(limit, len(top))], false, nil
}

func (s *ProductService) topSellers(ctx context.Context, limit int) ([]models.Product, error) {
	items, err := s.repo.Find(ctx, repositories.ProductQuery{
		Sort: []repositories.SortOrder{
			{Field: repositories.SortByPurchaseCount, Desc: true},
			{Field: repositories.SortByID},
		},
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: trending products: %w", ErrStoreUnavailable, err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return items, nil
}

// SuggestProducts returns products in the anchor's category whose price lies
// within the price range of the anchor's, best rated first. A missing anchor
// or one without a category yields an empty result.
func (s *ProductService) SuggestProducts(ctx context.Context, id uint, opts SuggestionOptions) ([]models.Product, error) {
	anchor, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrProductNotFound) {
		return []models.Product{}, nil
	}
	if err != nil {
		return nil, storeError(id, err)
	}
	if anchor.Category == nil {
		return []models.Product{}, nil
	}

	radius := s.cfg.SuggestionPriceRange
	if opts.PriceRange != nil && *opts.PriceRange >= 0 {
		radius = *opts.PriceRange
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.SuggestionLimit
	}
	lo := math.Max(0, anchor.Price-radius)
	hi := anchor.Price + radius

	items, err := s.repo.Find(ctx, repositories.ProductQuery{
		Filter: repositories.ProductFilter{
			Category:  anchor.Category,
			MinPrice:  &lo,
			MaxPrice:  &hi,
			ExcludeID: anchor.ID,
		},
		Sort: []repositories.SortOrder{
			{Field: repositories.SortByRating, Desc: true},
			{Field: repositories.SortByID},
		},
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: suggestions for product %d: %w", ErrStoreUnavailable, id, err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return items, nil
}

// RecordPurchase adds quantity to a product's purchase count.
func (s *ProductService) RecordPurchase(ctx context.Context, id uint, quantity int) error {
	if quantity <= 0 {
		return &ValidationError{Fields: map[string]string{"quantity": "must be positive"}}
	}
	if err := s.repo.IncrementPurchaseCount(ctx, id, quantity); err != nil {
		return storeError(id, err)
	}
	s.invalidate(ctx)
	return nil
}

// InvalidateAll drops every cached listing and the trending window.
func (s *ProductService) InvalidateAll(ctx context.Context) error {
	var errs []error
	for _, pattern := range invalidationPatterns {
		if err := s.cache.DeleteMatching(ctx, pattern); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", pattern, err))
		}
	}
	return errors.Join(errs...)
}

var invalidationPatterns = []string{ListingNamespace + "*", TrendingKey}

// invalidate runs after a committed write and must not fail it, so it
// ignores cancellation of the request.
func (s *ProductService) invalidate(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, pattern := range invalidationPatterns {
		if err := s.cache.DeleteMatching(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func (s *ProductService) readCache(ctx context.Context, key string, dst any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !cache.IsMiss(err) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("discarding corrupted cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *ProductService) writeCache(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, eventType string, id uint, product *models.Product) {
	if s.events == nil {
		return
	}
	event := models.ProductEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		ProductID:  id,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishProductEvent(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish product event",
			zap.String("type", eventType), zap.Uint("product_id", id), zap.Error(err))
	}
}

func storeError(id uint, err error) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("%w: product %d: %w", ErrStoreUnavailable, id, err)
}
