package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is the catalog entity the pricing engine resolves line items
// against. Catalog CRUD lives outside this service; the model exists here
// because authoritative prices are read from it at materialization time.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`
	ImageURL  string         `gorm:"type:varchar(500)" json:"image_url"`
	Vendor    string         `gorm:"type:varchar(100);index" json:"vendor"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	Packs     []ProductPack  `gorm:"foreignKey:ProductID" json:"packs"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProductPack is one purchasable size/configuration of a product, each with
// its own price in minor units.
type ProductPack struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"index;not null" json:"-"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	Price     int64  `gorm:"not null" json:"price"` // minor units
}

// DefaultPack returns the first defined pack, the fallback when a requested
// pack name matches nothing.
func (p *Product) DefaultPack() *ProductPack {
	if len(p.Packs) == 0 {
		return nil
	}
	return &p.Packs[0]
}
