package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/velora-shop/velora/app/models"
	"github.com/velora-shop/velora/app/repository"
	"gorm.io/gorm"
)

// Pricer resolves authoritative prices from the catalog. Client-quoted
// prices survive only when the catalog row itself is gone, and such lines
// are marked for review.
type Pricer struct {
	catalog repository.CatalogRepository
}

// NewPricer creates a pricer over the given catalog.
func NewPricer(catalog repository.CatalogRepository) *Pricer {
	return &Pricer{catalog: catalog}
}

// PriceItems finalizes line items against the catalog and returns them with
// the computed order total and item count, both server-side authoritative.
func (p *Pricer) PriceItems(ctx context.Context, items []ItemInput) ([]models.OrderItem, int64, int, error) {
	priced := make([]models.OrderItem, 0, len(items))
	var total int64
	var count int

	for _, in := range items {
		item, err := p.priceItem(ctx, in)
		if err != nil {
			return nil, 0, 0, err
		}
		priced = append(priced, item)
		total += item.Subtotal
		count += item.Quantity
	}
	return priced, total, count, nil
}

func (p *Pricer) priceItem(ctx context.Context, in ItemInput) (models.OrderItem, error) {
	item := models.OrderItem{
		Name:      in.Name,
		Pack:      in.Pack,
		UnitPrice: in.UnitPrice,
		Quantity:  in.Quantity,
		ImageURL:  in.ImageURL,
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	product, err := p.resolveProduct(ctx, in.ProductID)
	if err != nil {
		return models.OrderItem{}, err
	}
	if product == nil {
		// Degraded data: money already moved, so the order keeps the
		// client values but the line is flagged for manual review.
		item.NeedsReview = true
		log.Warnf("[Pricing] product %q not found in catalog, keeping client values for review", in.ProductID)
	} else {
		pack := matchPack(product, in.Pack)
		item.ProductID = &product.ID
		item.Name = product.Name
		if item.ImageURL == "" {
			item.ImageURL = product.ImageURL
		}
		if pack != nil {
			item.Pack = pack.Name
			item.UnitPrice = pack.Price
		}
	}

	item.Subtotal = item.UnitPrice * int64(item.Quantity)
	return item, nil
}

func (p *Pricer) resolveProduct(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 32)
	if err != nil || id == 0 {
		return nil, nil
	}
	product, err := p.catalog.GetByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

// matchPack selects the pack whose name matches the requested one,
// tolerant to case and surrounding whitespace; no match falls back to the
// product's first defined pack.
func matchPack(product *models.Product, requested string) *models.ProductPack {
	want := strings.ToLower(strings.TrimSpace(requested))
	if want != "" {
		for i := range product.Packs {
			if strings.ToLower(strings.TrimSpace(product.Packs[i].Name)) == want {
				return &product.Packs[i]
			}
		}
	}
	return product.DefaultPack()
}

// ReconcileCharge compares the computed total against the amount the
// gateway actually charged, both in minor units. A difference beyond the
// tolerance is flagged, never fatal: the charge has already succeeded.
func ReconcileCharge(computedTotal, chargedAmount int64) bool {
	diff := computedTotal - chargedAmount
	if diff < 0 {
		diff = -diff
	}
	return diff > amountTolerance
}
