package models

import (
	"bytes"
	"encoding/json"
)

// Field is one optional slot of a field mask. Set reports whether the caller
// supplied the attribute at all; Null reports an explicit JSON null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a set, non-null slot holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Nil returns a slot that explicitly clears the attribute.
func Nil[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// Ptr returns the slot's value, or nil when unset or null.
func (f Field[T]) Ptr() *T {
	if !f.Set || f.Null {
		return nil
	}
	v := f.Value
	return &v
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// ProductFields is the field mask accepted by create and partial update.
// Only slots with Set == true are applied; id and created_at are server-owned.
type ProductFields struct {
	Name          Field[string]  `json:"name"`
	Description   Field[string]  `json:"description"`
	Brand         Field[string]  `json:"brand"`
	Category      Field[string]  `json:"category"`
	Price         Field[float64] `json:"price"`
	Region        Field[string]  `json:"region"`
	Tags          Field[string]  `json:"tags"`
	ImageURL      Field[string]  `json:"image_url"`
	Rating        Field[float64] `json:"rating"`
	Stock         Field[int]     `json:"stock"`
	Warranty      Field[string]  `json:"warranty"`
	Size          Field[string]  `json:"size"`
	Material      Field[string]  `json:"material"`
	ExpiryDate    Field[Date]    `json:"expiry_date"`
	PackSize      Field[string]  `json:"pack_size"`
	Views         Field[int]     `json:"views"`
	PurchaseCount Field[int]     `json:"purchase_count"`
}

// IsEmpty reports whether no slot is set.
func (f ProductFields) IsEmpty() bool {
	return len(f.ApplyTo(&Product{})) == 0
}

// NullRequired returns the JSON names of non-nullable attributes the mask tries to null out.
func (f ProductFields) NullRequired() []string {
	slots := []struct {
		name      string
		set, null bool
	}{
		{"name", f.Name.Set, f.Name.Null},
		{"price", f.Price.Set, f.Price.Null},
		{"stock", f.Stock.Set, f.Stock.Null},
		{"views", f.Views.Set, f.Views.Null},
		{"purchase_count", f.PurchaseCount.Set, f.PurchaseCount.Null},
	}
	var names []string
	for _, s := range slots {
		if s.set && s.null {
			names = append(names, s.name)
		}
	}
	return names
}

// ApplyTo copies every set slot onto p and returns the touched column names
// in declaration order. Null slots on non-nullable attributes are skipped;
// callers reject them first via NullRequired.
func (f ProductFields) ApplyTo(p *Product) []string {
	var cols []string
	setString := func(col string, slot Field[string], dst **string) {
		if slot.Set {
			*dst = slot.Ptr()
			cols = append(cols, col)
		}
	}

	if f.Name.Set && !f.Name.Null {
		p.Name = f.Name.Value
		cols = append(cols, "name")
	}
	setString("description", f.Description, &p.Description)
	setString("brand", f.Brand, &p.Brand)
	setString("category", f.Category, &p.Category)
	if f.Price.Set && !f.Price.Null {
		p.Price = f.Price.Value
		cols = append(cols, "price")
	}
	setString("region", f.Region, &p.Region)
	setString("tags", f.Tags, &p.Tags)
	setString("image_url", f.ImageURL, &p.ImageURL)
	if f.Rating.Set {
		p.Rating = f.Rating.Ptr()
		cols = append(cols, "rating")
	}
	if f.Stock.Set && !f.Stock.Null {
		p.Stock = f.Stock.Value
		cols = append(cols, "stock")
	}
	setString("warranty", f.Warranty, &p.Warranty)
	setString("size", f.Size, &p.Size)
	setString("material", f.Material, &p.Material)
	if f.ExpiryDate.Set {
		p.ExpiryDate = f.ExpiryDate.Ptr()
		cols = append(cols, "expiry_date")
	}
	setString("pack_size", f.PackSize, &p.PackSize)
	if f.Views.Set && !f.Views.Null {
		p.Views = f.Views.Value
		cols = append(cols, "views")
	}
	if f.PurchaseCount.Set && !f.PurchaseCount.Null {
		p.PurchaseCount = f.PurchaseCount.Value
		cols = append(cols, "purchase_count")
	}
	return cols
}
