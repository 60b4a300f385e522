package services_test

import (
	"testing"

	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValidator_Validate(t *testing.T) {
	v := services.NewFieldValidator()

	tests := []struct {
		name     string
		fields   models.ProductFields
		creating bool
		bad      []string
	}{
		{
			name:     "minimal create",
			fields:   models.ProductFields{Name: models.Some("Pixel"), Price: models.Some(0.0)},
			creating: true,
		},
		{
			name:     "create needs name and price",
			fields:   models.ProductFields{Brand: models.Some("Google")},
			creating: true,
			bad:      []string{"name", "price"},
		},
		{
			name:   "update needs nothing",
			fields: models.ProductFields{Stock: models.Some(3)},
		},
		{
			name:   "rating bounds",
			fields: models.ProductFields{Rating: models.Some(5.5)},
			bad:    []string{"rating"},
		},
		{
			name:   "rating zero is out of range",
			fields: models.ProductFields{Rating: models.Some(0.0)},
			bad:    []string{"rating"},
		},
		{
			name:   "rating may be cleared",
			fields: models.ProductFields{Rating: models.Nil[float64]()},
		},
		{
			name:   "image extension",
			fields: models.ProductFields{ImageURL: models.Some("https://cdn/x.gif")},
			bad:    []string{"image_url"},
		},
		{
			name:   "image extension is case-insensitive",
			fields: models.ProductFields{ImageURL: models.Some("https://cdn/x.WEBP")},
		},
		{
			name:   "negative counters",
			fields: models.ProductFields{Stock: models.Some(-1), Views: models.Some(-2)},
			bad:    []string{"stock", "views"},
		},
		{
			name:   "required attributes cannot be nulled",
			fields: models.ProductFields{Name: models.Nil[string](), PurchaseCount: models.Nil[int]()},
			bad:    []string{"name", "purchase_count"},
		},
		{
			name:   "empty name",
			fields: models.ProductFields{Name: models.Some("")},
			bad:    []string{"name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.fields, tt.creating)
			if len(tt.bad) == 0 {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, services.ErrValidation)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.bad {
				assert.Contains(t, verr.Fields, field)
			}
			assert.Len(t, verr.Fields, len(tt.bad))
		})
	}
}
