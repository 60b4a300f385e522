package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// productConstraints is the validation view of a field mask: nil means the
// slot is unset or null and is skipped.
type productConstraints struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=255"`
	ImageURL      *string  `json:"image_url" validate:"omitempty,imageext"`
	Rating        *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Stock         *int     `json:"stock" validate:"omitempty,gte=0"`
	Views         *int     `json:"views" validate:"omitempty,gte=0"`
	PurchaseCount *int     `json:"purchase_count" validate:"omitempty,gte=0"`
}

// FieldValidator checks a ProductFields mask against the product's domain
// constraints before anything touches the store or cache.
type FieldValidator struct {
	validate *validator.Validate
}

// NewFieldValidator creates a validator with the catalog's custom rules.
func NewFieldValidator() *FieldValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("imageext", validImageURL)
	return &FieldValidator{validate: v}
}

func validImageURL(fl validator.FieldLevel) bool {
	u := strings.ToLower(fl.Field().String())
	if u == "" {
		return true
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(u, ext) {
			return true
		}
	}
	return false
}

// Validate returns a *ValidationError if fields break a constraint. When
// creating, name and price must be present.
func (v *FieldValidator) Validate(fields models.ProductFields, creating bool) error {
	problems := make(map[string]string)

	if creating {
		if !fields.Name.Set || fields.Name.Null {
			problems["name"] = "is required"
		}
		if !fields.Price.Set || fields.Price.Null {
			problems["price"] = "is required"
		}
	}
	for _, name := range fields.NullRequired() {
		if _, ok := problems[name]; !ok {
			problems[name] = "cannot be null"
		}
	}

	view := productConstraints{
		Name:          fields.Name.Ptr(),
		ImageURL:      fields.ImageURL.Ptr(),
		Rating:        fields.Rating.Ptr(),
		Stock:         fields.Stock.Ptr(),
		Views:         fields.Views.Ptr(),
		PurchaseCount: fields.PurchaseCount.Ptr(),
	}
	if err := v.validate.Struct(view); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate product fields: %w", err)
		}
		for _, e := range verrs {
			problems[e.Field()] = describe(e)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "imageext":
		return "must end with " + strings.Join(imageExtensions, ", ")
	case "gte":
		return "must be at least " + e.Param()
	case "lte":
		return "must be at most " + e.Param()
	case "min", "max":
		return fmt.Sprintf("length failed the '%s=%s' rule", e.Tag(), e.Param())
	}
	return fmt.Sprintf("failed on the '%s' tag", e.Tag())
}
