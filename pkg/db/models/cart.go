package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Cart is the single active draft order a user builds before settlement.
type Cart struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	CanteenID           uuid.UUID        `gorm:"column:canteen_id;type:uuid;not null"`
	MenuConfigurationID uuid.UUID        `gorm:"column:menu_configuration_id;type:uuid;not null"`
	OrderDate           int64            `gorm:"column:order_date;not null"`
	TotalPaise          int64            `gorm:"column:total_paise;not null;default:0"`
	Status              enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Items               []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem is a draft line item priced at the moment it entered the cart.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null"`
	ItemID         uuid.UUID `gorm:"column:item_id;type:uuid;not null"`
	Quantity       int64     `gorm:"column:quantity;not null"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	TotalPaise     int64     `gorm:"column:total_paise;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
