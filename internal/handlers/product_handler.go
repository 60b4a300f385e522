package handlers

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleListProducts)
	// Registered before /:id so "trending" is not taken for an id.
	productRoutes.Get("/trending", h.HandleTrendingProducts)
	productRoutes.Get("/:id/suggestions", h.HandleSuggestProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Patch("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleCreateProduct creates a new product. Unknown attributes are ignored.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var fields models.ProductFields
	if err := c.BodyParser(&fields); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), fields)
	if err != nil {
		return h.fail(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleListProducts returns one page of products.
// Query: skip, limit, search, category, region, min_price, max_price, sort_by, order.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	var req services.ListRequest
	var err error

	if req.Offset, err = queryInt(c, "skip", 0); err != nil {
		return badRequest(c, "Invalid query parameter", err)
	}
	if req.Limit, err = queryInt(c, "limit", 0); err != nil {
		return badRequest(c, "Invalid query parameter", err)
	}
	if req.MinPrice, err = queryFloat(c, "min_price"); err != nil {
		return badRequest(c, "Invalid query parameter", err)
	}
	if req.MaxPrice, err = queryFloat(c, "max_price"); err != nil {
		return badRequest(c, "Invalid query parameter", err)
	}
	req.Search = queryString(c, "search")
	req.Category = queryString(c, "category")
	req.Region = queryString(c, "region")
	req.SortBy = queryString(c, "sort_by")
	req.Order = queryString(c, "order")

	page, err := h.service.ListProducts(c.UserContext(), req)
	if err != nil {
		return h.fail(c, "Could not retrieve products", err)
	}
	return c.JSON(page)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}

	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleUpdateProduct applies a partial update; PUT and PATCH behave the same.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}
	var fields models.ProductFields
	if err := c.BodyParser(&fields); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, fields)
	if err != nil {
		return h.fail(c, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return h.fail(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// HandleTrendingProducts returns the best sellers and reports in X-Cache
// whether they were served from the cache.
func (h *ProductHandler) HandleTrendingProducts(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return badRequest(c, "Invalid query parameter", err)
	}

	items, hit, err := h.service.TrendingProducts(c.UserContext(), limit)
	if err != nil {
		return h.fail(c, "Could not retrieve trending products", err)
	}
	if hit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	return c.JSON(items)
}

// HandleSuggestProducts returns similar products in the same category and price band.
func (h *ProductHandler) HandleSuggestProducts(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}
	var opts services.SuggestionOptions
	if opts.PriceRange, err = queryFloat(c, "price_range"); err != nil {
		return badRequest(c, "Invalid query parameter", err)
	}
	if opts.Limit, err = queryInt(c, "limit", 0); err != nil {
		return badRequest(c, "Invalid query parameter", err)
	}

	// The service answers an unknown anchor with an empty list; the API reports it.
	if _, err := h.service.GetProductByID(c.UserContext(), id); err != nil {
		return h.fail(c, "Could not retrieve product", err)
	}
	items, err := h.service.SuggestProducts(c.UserContext(), id, opts)
	if err != nil {
		return h.fail(c, "Could not retrieve suggestions", err)
	}
	return c.JSON(items)
}

func (h *ProductHandler) fail(c *fiber.Ctx, message string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	}

	h.logger.Error(message, zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func productID(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%q is not a product id", raw)
	}
	return uint(id), nil
}

func queryString(c *fiber.Ctx, name string) *string {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func queryFloat(c *fiber.Ctx, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	return &v, nil
}
