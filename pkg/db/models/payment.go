package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Payment records how a slice of an order's total settles. An order may carry
// one wallet payment plus one cash or online payment for the remainder.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Method        enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	AmountPaise   int64               `gorm:"column:amount_paise;not null"`
	TotalPaise    int64               `gorm:"column:total_paise;not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'INR'"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TransactionID *string             `gorm:"column:transaction_id"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
