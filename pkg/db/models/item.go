package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Item is a catalog dish belonging to a canteen. Quantity is the per-day
// catalog stock the remaining-quantity calculator subtracts from.
type Item struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CanteenID   uuid.UUID          `gorm:"column:canteen_id;type:uuid;not null"`
	Name        string             `gorm:"column:name;not null"`
	Description *string            `gorm:"column:description"`
	Quantity    int64              `gorm:"column:quantity;not null;default:0"`
	Status      enums.RecordStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Pricing     *Pricing           `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Pricing holds the current unit price for an item.
type Pricing struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID     uuid.UUID      `gorm:"column:item_id;type:uuid;not null;uniqueIndex"`
	PricePaise int64          `gorm:"column:price_paise;not null"`
	Currency   enums.Currency `gorm:"column:currency;type:text;not null;default:'INR'"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
