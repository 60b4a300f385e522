package services_test

import (
	"testing"

	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestQueryPlanner_Key(t *testing.T) {
	planner := services.NewQueryPlanner(100, 1000)

	tests := []struct {
		name string
		req  services.ListRequest
		want string
	}{
		{
			name: "defaults",
			req:  services.ListRequest{},
			want: "products_list:0:100:None:None:None:None:None:None:asc",
		},
		{
			name: "every parameter",
			req: services.ListRequest{
				Offset: 20, Limit: 10,
				Search: strPtr("galaxy"), Category: strPtr("phones"), Region: strPtr("India"),
				MinPrice: floatPtr(99.5), MaxPrice: floatPtr(1500),
				SortBy: strPtr("price"), Order: strPtr("DESC"),
			},
			want: `products_list:20:10:"galaxy":"phones":"India":99.5:1500:price:desc`,
		},
		{
			name: "sentinel text stays distinct from absent",
			req:  services.ListRequest{Category: strPtr("None")},
			want: `products_list:0:100:None:"None":None:None:None:None:asc`,
		},
		{
			name: "separator in text is quoted",
			req:  services.ListRequest{Search: strPtr(`a:b"c`)},
			want: `products_list:0:100:"a:b\"c":None:None:None:None:None:asc`,
		},
		{
			name: "unsupported sort is dropped",
			req:  services.ListRequest{SortBy: strPtr("bogus"), Order: strPtr("sideways")},
			want: "products_list:0:100:None:None:None:None:None:None:asc",
		},
		{
			name: "empty strings are absent",
			req:  services.ListRequest{Search: strPtr(""), Region: strPtr("")},
			want: "products_list:0:100:None:None:None:None:None:None:asc",
		},
		{
			name: "limits are clamped",
			req:  services.ListRequest{Offset: -5, Limit: 5000},
			want: "products_list:0:1000:None:None:None:None:None:None:asc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, planner.Plan(tt.req).Key)
		})
	}
}

func TestQueryPlanner_KeyIsDeterministic(t *testing.T) {
	planner := services.NewQueryPlanner(100, 1000)
	a := services.ListRequest{Limit: 5, Category: strPtr("shoes"), SortBy: strPtr("name")}
	b := services.ListRequest{Limit: 5, Category: strPtr("shoes"), SortBy: strPtr("name"), Order: strPtr("asc")}

	assert.Equal(t, planner.Plan(a).Key, planner.Plan(b).Key)
	assert.NotEqual(t, planner.Plan(a).Key, planner.Plan(services.ListRequest{Limit: 5, Region: strPtr("shoes"), SortBy: strPtr("name")}).Key)
	assert.NotEqual(t, planner.Plan(a).Key, planner.Plan(services.ListRequest{Limit: 6, Category: strPtr("shoes"), SortBy: strPtr("name")}).Key)
}

func TestQueryPlanner_Query(t *testing.T) {
	planner := services.NewQueryPlanner(100, 1000)

	plan := planner.Plan(services.ListRequest{
		Offset: 3, Limit: 7,
		Search: strPtr("run"), MinPrice: floatPtr(10),
		SortBy: strPtr("created_at"), Order: strPtr("desc"),
	})
	assert.Equal(t, repositories.ProductQuery{
		Filter: repositories.ProductFilter{Search: strPtr("run"), MinPrice: floatPtr(10)},
		Sort: []repositories.SortOrder{
			{Field: repositories.SortByCreatedAt, Desc: true},
			{Field: repositories.SortByID},
		},
		Offset: 3,
		Limit:  7,
	}, plan.Query)

	// An unsupported field ignores the direction too.
	plan = planner.Plan(services.ListRequest{SortBy: strPtr("purchase_count"), Order: strPtr("desc")})
	assert.Equal(t, []repositories.SortOrder{{Field: repositories.SortByID}}, plan.Query.Sort)
	assert.Equal(t, 100, plan.Query.Limit)
}
