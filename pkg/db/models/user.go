package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an ordering customer, identified primarily by mobile number.
type User struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName string     `gorm:"column:first_name;not null"`
	LastName  *string    `gorm:"column:last_name"`
	Email     *string    `gorm:"column:email"`
	Mobile    string     `gorm:"column:mobile;not null;uniqueIndex"`
	CanteenID *uuid.UUID `gorm:"column:canteen_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
