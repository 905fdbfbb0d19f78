package models

import "time"

// CartItem is a pending line item in a user's server-side cart. The cart
// store is owned by the shop frontend; this service reads it as the item
// source for manual checkout and bulk-deletes it after a successful
// materialization.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Pack      string    `gorm:"type:varchar(100)" json:"pack"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
