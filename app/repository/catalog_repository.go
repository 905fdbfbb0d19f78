package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/velora-shop/velora/app/models"
	"github.com/velora-shop/velora/internal/pkg/cache"
	"gorm.io/gorm"
)

const productCacheTTL = 10 * time.Minute

type gormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a catalog repository backed by GORM with a
// Redis read-through cache. Pricing hits this on every webhook, so product
// rows are cached for a short TTL.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &gormCatalogRepository{db: db}
}

func (r *gormCatalogRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	key := productCacheKey(id)
	if raw, err := cache.Get(ctx, key); err == nil && raw != "" {
		var product models.Product
		if err := json.Unmarshal([]byte(raw), &product); err == nil {
			return &product, nil
		}
		// Corrupt cache entry, fall through to the database.
		cache.Delete(ctx, key)
	}

	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Packs").First(&product, id).Error; err != nil {
		return nil, err
	}

	if data, err := json.Marshal(&product); err == nil {
		if err := cache.Set(ctx, key, data, productCacheTTL); err != nil {
			log.Warnf("[Catalog] cache write failed for product %d: %v", id, err)
		}
	}
	return &product, nil
}

func (r *gormCatalogRepository) InvalidateCache(ctx context.Context, id uint) {
	if err := cache.Delete(ctx, productCacheKey(id)); err != nil {
		log.Warnf("[Catalog] cache invalidation failed for product %d: %v", id, err)
	}
}

func productCacheKey(id uint) string {
	return fmt.Sprintf("catalog:product:%d", id)
}
