package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velora-shop/velora/app/models"
	"gorm.io/gorm"
)

type fakeCatalog struct {
	products map[uint]*models.Product
}

func (f *fakeCatalog) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeCatalog) InvalidateCache(ctx context.Context, id uint) {}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[uint]*models.Product{
		7: {
			ID:       7,
			Name:     "Rice",
			ImageURL: "rice.jpg",
			Packs: []models.ProductPack{
				{ID: 1, ProductID: 7, Name: "5kg", Price: 6100},
				{ID: 2, ProductID: 7, Name: "10kg", Price: 11800},
			},
		},
		9: {
			ID:   9,
			Name: "Beans",
			Packs: []models.ProductPack{
				{ID: 3, ProductID: 9, Name: "2kg", Price: 4800},
			},
		},
	}}
}

// The catalog price always wins over the client-quoted one.
func TestPriceItems_PriceAuthority(t *testing.T) {
	pricer := NewPricer(testCatalog())

	items, total, count, err := pricer.PriceItems(context.Background(), []ItemInput{
		{ProductID: "7", Pack: "5kg", UnitPrice: 1, Quantity: 2},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(6100), items[0].UnitPrice)
	assert.Equal(t, int64(12200), items[0].Subtotal)
	assert.Equal(t, int64(12200), total)
	assert.Equal(t, 2, count)
	assert.False(t, items[0].NeedsReview)
}

func TestPriceItems_TotalCorrectness(t *testing.T) {
	pricer := NewPricer(testCatalog())

	items, total, count, err := pricer.PriceItems(context.Background(), []ItemInput{
		{ProductID: "7", Pack: "5kg", Quantity: 2},
		{ProductID: "9", Pack: "2kg", Quantity: 1},
	})
	assert.NoError(t, err)

	var sum int64
	for _, item := range items {
		sum += item.UnitPrice * int64(item.Quantity)
	}
	assert.Equal(t, sum, total)
	assert.Equal(t, int64(2*6100+4800), total)
	assert.Equal(t, 3, count)
}

func TestPriceItems_PackMatching(t *testing.T) {
	pricer := NewPricer(testCatalog())

	tests := []struct {
		name      string
		pack      string
		wantPack  string
		wantPrice int64
	}{
		{"exact match", "10kg", "10kg", 11800},
		{"case insensitive", " 5KG ", "5kg", 6100},
		{"unknown falls back to first pack", "25kg", "5kg", 6100},
		{"empty falls back to first pack", "", "5kg", 6100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, _, _, err := pricer.PriceItems(context.Background(), []ItemInput{{ProductID: "7", Pack: tt.pack, Quantity: 1}})
			assert.NoError(t, err)
			assert.Equal(t, tt.wantPack, items[0].Pack)
			assert.Equal(t, tt.wantPrice, items[0].UnitPrice)
		})
	}
}

// A vanished catalog row keeps the client values but flags the line.
func TestPriceItems_ProductNotFound(t *testing.T) {
	pricer := NewPricer(testCatalog())

	items, total, _, err := pricer.PriceItems(context.Background(), []ItemInput{
		{ProductID: "999", Name: "Ghost", UnitPrice: 500, Quantity: 3},
	})
	assert.NoError(t, err)
	assert.True(t, items[0].NeedsReview)
	assert.Nil(t, items[0].ProductID)
	assert.Equal(t, "Ghost", items[0].Name)
	assert.Equal(t, int64(500), items[0].UnitPrice)
	assert.Equal(t, int64(1500), total)
}

func TestPriceItems_ZeroQuantityBecomesOne(t *testing.T) {
	pricer := NewPricer(testCatalog())

	items, _, count, err := pricer.PriceItems(context.Background(), []ItemInput{{ProductID: "9", Quantity: 0}})
	assert.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 1, count)
}

func TestReconcileCharge(t *testing.T) {
	tests := []struct {
		name     string
		computed int64
		charged  int64
		mismatch bool
	}{
		{"exact", 17000, 17000, false},
		{"within tolerance", 17000, 17050, false},
		{"at tolerance", 17000, 17100, false},
		{"beyond tolerance", 17000, 25000, true},
		{"undercharged", 17000, 10000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mismatch, ReconcileCharge(tt.computed, tt.charged))
		})
	}
}
