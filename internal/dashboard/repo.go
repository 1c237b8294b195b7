package dashboard

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	"github.com/worldtek/canteen-backend/pkg/pagination"
)

// Totals is the aggregate order count and revenue for a status slice.
type Totals struct {
	OrderCount  int64 `json:"order_count"`
	AmountPaise int64 `json:"amount_paise"`
}

// CanteenTotals is one canteen's slice of the aggregates.
type CanteenTotals struct {
	CanteenID   uuid.UUID `json:"canteen_id"`
	CanteenName string    `json:"canteen_name"`
	OrderCount  int64     `json:"order_count"`
	AmountPaise int64     `json:"amount_paise"`
}

// OrdersFilter narrows the paginated order listing.
type OrdersFilter struct {
	CanteenID *uuid.UUID
	Status    enums.OrderStatus
	OrderDate *int64
}

// Repository answers the admin dashboard's read-only queries.
type Repository interface {
	Totals(ctx context.Context, status enums.OrderStatus) (*Totals, error)
	TotalsByCanteen(ctx context.Context, status enums.OrderStatus) ([]CanteenTotals, error)
	ListOrders(ctx context.Context, filter OrdersFilter, params pagination.Params) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dashboard repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Totals(ctx context.Context, status enums.OrderStatus) (*Totals, error) {
	var result Totals
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS order_count, COALESCE(SUM(total_paise), 0) AS amount_paise").
		Where("status = ?", status).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *repository) TotalsByCanteen(ctx context.Context, status enums.OrderStatus) ([]CanteenTotals, error) {
	var rows []CanteenTotals
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("orders.canteen_id AS canteen_id, canteens.name AS canteen_name, COUNT(*) AS order_count, COALESCE(SUM(orders.total_paise), 0) AS amount_paise").
		Joins("JOIN canteens ON canteens.id = orders.canteen_id").
		Where("orders.status = ?", status).
		Group("orders.canteen_id, canteens.name").
		Order("amount_paise DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListOrders(ctx context.Context, filter OrdersFilter, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filter.CanteenID != nil {
		query = query.Where("canteen_id = ?", *filter.CanteenID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderDate != nil {
		query = query.Where("order_date = ?", *filter.OrderDate)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
