package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Canteen is a serving location that owns items and menus.
type Canteen struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	Description *string            `gorm:"column:description"`
	Location    *string            `gorm:"column:location"`
	Status      enums.RecordStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Items       []Item             `gorm:"foreignKey:CanteenID;constraint:OnDelete:CASCADE"`
	Menus       []Menu             `gorm:"foreignKey:CanteenID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
