package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Order is a settled purchase. Orders are never hard-deleted; cancellation
// flips the status and refunds through the wallet ledger.
type Order struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	CanteenID           uuid.UUID         `gorm:"column:canteen_id;type:uuid;not null"`
	MenuConfigurationID uuid.UUID         `gorm:"column:menu_configuration_id;type:uuid;not null"`
	OrderDate           int64             `gorm:"column:order_date;not null"`
	TotalPaise          int64             `gorm:"column:total_paise;not null"`
	Status              enums.OrderStatus `gorm:"column:status;type:text;not null;default:'initiated'"`
	QRCode              *string           `gorm:"column:qr_code"`
	Items               []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments            []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is the immutable snapshot of one cart line at settlement time.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ItemID         uuid.UUID `gorm:"column:item_id;type:uuid;not null"`
	Quantity       int64     `gorm:"column:quantity;not null"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	TotalPaise     int64     `gorm:"column:total_paise;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
