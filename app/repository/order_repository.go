package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/velora-shop/velora/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errDuplicateReference aborts the creation transaction when another
// delivery of the same payment reference won the insert race. It never
// escapes CreateIfAbsent.
var errDuplicateReference = errors.New("order already exists for payment reference")

type gormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository backed by GORM.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

// CreateIfAbsent materializes exactly one order per payment reference. The
// order number is minted and the order inserted in one transaction: a
// conditional insert guarded by the unique payment_reference index decides
// the race, and losing it rolls the counter increment back so numbering
// stays gapless.
func (r *gormOrderRepository) CreateIfAbsent(ctx context.Context, order *models.Order) (bool, *models.Order, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := models.NextCounterValue(tx, models.CounterOrderNumber)
		if err != nil {
			return err
		}
		order.OrderNumber = fmt.Sprintf("VEL-%06d", seq)

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_reference"}},
			DoNothing: true,
		}).Create(order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errDuplicateReference
		}
		return nil
	})

	if err != nil && !errors.Is(err, errDuplicateReference) {
		return false, nil, err
	}

	created := err == nil
	stored, ferr := r.GetByPaymentReference(ctx, order.PaymentReference)
	if ferr != nil {
		return false, nil, ferr
	}
	return created, stored, nil
}

func (r *gormOrderRepository) GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("payment_reference = ?", reference).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepository) GetByUUID(ctx context.Context, uuid string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("uuid = ?", uuid).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepository) GetByUserID(ctx context.Context, userID uint, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *gormOrderRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *gormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}
