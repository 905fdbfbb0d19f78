package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const CounterOrderNumber = "orderNumber"

// Counter is a named monotonic sequence. Order numbers are minted from it
// under a row lock so concurrent order creation never reuses a value.
type Counter struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Value int64  `gorm:"not null;default:0" json:"value"`
}

// NextCounterValue atomically increments the named counter and returns the
// new value. Must run inside the caller's transaction: the FOR UPDATE lock
// is what serializes concurrent allocations, and rolling the transaction
// back releases the value without burning it.
func NextCounterValue(tx *gorm.DB, name string) (int64, error) {
	// Ensure the row exists so the lock below has something to grab.
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&Counter{Name: name, Value: 0}).Error; err != nil {
		return 0, err
	}

	var c Counter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&c).Error; err != nil {
		return 0, err
	}

	next := c.Value + 1
	if err := tx.Model(&Counter{}).Where("id = ?", c.ID).
		Update("value", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
