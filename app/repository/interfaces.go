package repository

import (
	"context"

	"github.com/velora-shop/velora/app/models"
	"gorm.io/gorm"
)

// OrderRepository defines the interface for order-related database operations.
// Every method takes the caller's context so request deadlines bound the
// underlying queries.
type OrderRepository interface {
	// CreateIfAbsent persists the order unless one already exists for its
	// payment reference. It returns whether this call created the row plus
	// the stored order either way.
	CreateIfAbsent(ctx context.Context, order *models.Order) (created bool, stored *models.Order, err error)
	GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	GetByUUID(ctx context.Context, uuid string) (*models.Order, error)
	GetByUserID(ctx context.Context, userID uint, offset, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Count(ctx context.Context) (int64, error)
}

// CatalogRepository defines read access to the product catalog
type CatalogRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	InvalidateCache(ctx context.Context, id uint)
}

// CartRepository defines the interface for cart collaborator operations
type CartRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error)
	ClearByUser(ctx context.Context, userID uint) error
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Order   OrderRepository
	Catalog CatalogRepository
	Cart    CartRepository
	User    UserRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order:   NewOrderRepository(db),
		Catalog: NewCatalogRepository(db),
		Cart:    NewCartRepository(db),
		User:    NewUserRepository(db),
	}
}
