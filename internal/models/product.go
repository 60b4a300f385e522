package models

import "time"

// Product represents a catalog item.
type Product struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name          string    `json:"name" gorm:"not null"`
	Description   *string   `json:"description"`
	Brand         *string   `json:"brand" gorm:"index"`
	Category      *string   `json:"category" gorm:"index"`
	Price         float64   `json:"price" gorm:"not null;index"`
	Region        *string   `json:"region" gorm:"index"`
	Tags          *string   `json:"tags"`
	ImageURL      *string   `json:"image_url"`
	Rating        *float64  `json:"rating"`
	Stock         int       `json:"stock" gorm:"not null;default:0"`
	Warranty      *string   `json:"warranty"`
	Size          *string   `json:"size"`
	Material      *string   `json:"material"`
	ExpiryDate    *Date     `json:"expiry_date"`
	PackSize      *string   `json:"pack_size"`
	Views         int       `json:"views" gorm:"not null;default:0"`
	PurchaseCount int       `json:"purchase_count" gorm:"not null;default:0;index"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// ProductPage is a single page of a filtered listing.
// Total counts the whole filtered set, not just Items.
type ProductPage struct {
	Total int64     `json:"total"`
	Items []Product `json:"items"`
}
