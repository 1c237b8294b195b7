package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Menu activates a set of items for a canteen over an inclusive day range.
// At most one active menu may exist per (canteen, configuration) pair.
type Menu struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string             `gorm:"column:name;not null"`
	Description         *string            `gorm:"column:description"`
	CanteenID           uuid.UUID          `gorm:"column:canteen_id;type:uuid;not null"`
	MenuConfigurationID uuid.UUID          `gorm:"column:menu_configuration_id;type:uuid;not null"`
	StartDate           int64              `gorm:"column:start_date;not null"`
	EndDate             int64              `gorm:"column:end_date;not null"`
	Status              enums.RecordStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Items               []MenuItem         `gorm:"foreignKey:MenuID;constraint:OnDelete:CASCADE"`
	Configuration       *MenuConfiguration `gorm:"foreignKey:MenuConfigurationID"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// MenuConfiguration names a meal slot and carries its default daily serving
// window. Only the time-of-day component of the window timestamps matters.
type MenuConfiguration struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	DefaultStartTime int64     `gorm:"column:default_start_time;not null"`
	DefaultEndTime   int64     `gorm:"column:default_end_time;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// MenuItem links an item onto a menu with per-order quantity bounds.
type MenuItem struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MenuID      uuid.UUID          `gorm:"column:menu_id;type:uuid;not null"`
	ItemID      uuid.UUID          `gorm:"column:item_id;type:uuid;not null"`
	MinQuantity int64              `gorm:"column:min_quantity;not null;default:1"`
	MaxQuantity int64              `gorm:"column:max_quantity;not null;default:10"`
	Status      enums.RecordStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Item        *Item              `gorm:"foreignKey:ItemID"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
