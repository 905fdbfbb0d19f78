package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"

	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Customer is the denormalized buyer snapshot embedded in an order. Catalog
// or account changes after checkout must never alter historical orders, so
// these columns are copies, not references.
type Customer struct {
	FullName string `gorm:"type:varchar(150)" json:"full_name"`
	Email    string `gorm:"type:varchar(200)" json:"email"`
	Phone    string `gorm:"type:varchar(50)" json:"phone"`
	Address  string `gorm:"type:varchar(255)" json:"address"`
	City     string `gorm:"type:varchar(100)" json:"city"`
	Country  string `gorm:"type:varchar(100)" json:"country"`
}

type Order struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UUID             string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID           *uint          `gorm:"index" json:"user_id,omitempty"` // nil for guest orders
	Customer         Customer       `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Items            []OrderItem    `gorm:"foreignKey:OrderID" json:"items" validate:"required,min=1"`
	TotalAmount      int64          `gorm:"not null" json:"total_amount"` // minor units
	TotalItems       int            `gorm:"not null" json:"total_items"`
	DeliveryDate     *time.Time     `gorm:"type:timestamp;default:null" json:"delivery_date,omitempty"`
	DeliveryTime     string         `gorm:"type:varchar(50)" json:"delivery_time,omitempty"`
	PaymentReference string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"payment_reference" validate:"required"`
	PaymentStatus    string         `gorm:"type:varchar(20);default:'pending'" json:"payment_status" validate:"oneof=pending paid refunded"`
	Status           string         `gorm:"type:varchar(20);default:'confirmed'" json:"status" validate:"oneof=confirmed processing completed cancelled"`
	OrderNumber      string         `gorm:"type:varchar(20);uniqueIndex" json:"order_number"`
	Vendor           string         `gorm:"type:varchar(100)" json:"vendor,omitempty"`
	AmountMismatch   bool           `gorm:"default:false" json:"amount_mismatch"`
	ChargedAmount    int64          `gorm:"not null;default:0" json:"charged_amount"` // minor units reported by the gateway
	CreatedAt        time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem is a denormalized line item owned by exactly one order.
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"index;not null" json:"-"`
	ProductID   *uint     `gorm:"index" json:"product_id,omitempty"` // nil when the catalog row could not be resolved
	Name        string    `gorm:"type:varchar(200)" json:"name"`
	Pack        string    `gorm:"type:varchar(100)" json:"pack"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"` // minor units, catalog-resolved
	Quantity    int       `gorm:"not null" json:"quantity" validate:"min=1"`
	Subtotal    int64     `gorm:"not null" json:"subtotal"`
	ImageURL    string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	NeedsReview bool      `gorm:"default:false" json:"needs_review"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.New().String()
	}
	return nil
}

// Validate enforces the struct-level invariants before an order is handed
// to the repository for materialization.
func (o *Order) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// CanTransitionTo reports whether the order status may move to next.
// Cancellation is allowed from any non-terminal state; the forward path is
// confirmed -> processing -> completed.
func (o *Order) CanTransitionTo(next string) bool {
	if o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled {
		return false
	}
	switch next {
	case OrderStatusCancelled:
		return true
	case OrderStatusProcessing:
		return o.Status == OrderStatusConfirmed
	case OrderStatusCompleted:
		return o.Status == OrderStatusProcessing
	default:
		return false
	}
}
