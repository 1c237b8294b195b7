package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/pkg/enums"
)

// WalletEntry is an append-only ledger row. The wallet balance is always
// derived by summing entries; no stored balance exists anywhere.
type WalletEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	ReferenceID *uuid.UUID            `gorm:"column:reference_id;type:uuid"`
	Type        enums.WalletEntryType `gorm:"column:type;type:text;not null"`
	AmountPaise int64                 `gorm:"column:amount_paise;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
