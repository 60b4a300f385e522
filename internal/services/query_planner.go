package services

import (
	"strconv"
	"strings"

	"catalog/internal/repositories"
)

// Cache key namespaces shared with existing deployments.
const (
	ListingNamespace = "products_list"
	TrendingKey      = "trending_products"

	absent = "None"
)

var sortableFields = map[string]repositories.SortField{
	"price":      repositories.SortByPrice,
	"created_at": repositories.SortByCreatedAt,
	"name":       repositories.SortByName,
}

// ListRequest is a listing query as received from a caller. Nil means absent.
type ListRequest struct {
	Offset   int
	Limit    int
	Search   *string
	Category *string
	Region   *string
	MinPrice *float64
	MaxPrice *float64
	SortBy   *string
	Order    *string
}

// QueryPlan pairs the canonical cache key of a listing with the store query
// that answers it.
type QueryPlan struct {
	Key   string
	Query repositories.ProductQuery
}

// QueryPlanner turns listing requests into cache keys and store queries.
type QueryPlanner struct {
	defaultLimit int
	maxLimit     int
}

// NewQueryPlanner creates a planner. Non-positive limits fall back to 100 and 1000.
func NewQueryPlanner(defaultLimit, maxLimit int) *QueryPlanner {
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	if maxLimit <= 0 {
		maxLimit = 1000
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &QueryPlanner{defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Plan normalizes req and derives its key and query. It never fails: an
// unsupported sort field falls back to ascending id order.
func (p *QueryPlanner) Plan(req ListRequest) QueryPlan {
	offset := max(req.Offset, 0)
	limit := req.Limit
	if limit <= 0 {
		limit = p.defaultLimit
	}
	limit = min(limit, p.maxLimit)

	filter := repositories.ProductFilter{
		Search:   nonEmpty(req.Search),
		Category: nonEmpty(req.Category),
		Region:   nonEmpty(req.Region),
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
	}

	var (
		sortName string
		field    repositories.SortField
		sortable bool
	)
	if req.SortBy != nil {
		field, sortable = sortableFields[*req.SortBy]
		if sortable {
			sortName = *req.SortBy
		}
	}
	desc := req.Order != nil && strings.EqualFold(strings.TrimSpace(*req.Order), "desc")
	order := "asc"
	if desc {
		order = "desc"
	}

	sorts := make([]repositories.SortOrder, 0, 2)
	if sortable {
		sorts = append(sorts, repositories.SortOrder{Field: field, Desc: desc})
	}
	sorts = append(sorts, repositories.SortOrder{Field: repositories.SortByID})

	parts := []string{
		ListingNamespace,
		strconv.Itoa(offset),
		strconv.Itoa(limit),
		quoted(filter.Search),
		quoted(filter.Category),
		quoted(filter.Region),
		number(filter.MinPrice),
		number(filter.MaxPrice),
		orAbsent(sortName),
		order,
	}

	return QueryPlan{
		Key: strings.Join(parts, ":"),
		Query: repositories.ProductQuery{
			Filter: filter,
			Sort:   sorts,
			Offset: offset,
			Limit:  limit,
		},
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// quoted renders user text so it can never equal the sentinel or contain a bare separator.
func quoted(s *string) string {
	if s == nil {
		return absent
	}
	return strconv.Quote(*s)
}

func number(f *float64) string {
	if f == nil {
		return absent
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func orAbsent(s string) string {
	if s == "" {
		return absent
	}
	return s
}
