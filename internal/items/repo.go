package items

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Repository persists catalog items and answers stock queries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
	ListByCanteen(ctx context.Context, canteenID uuid.UUID, status enums.RecordStatus) ([]models.Item, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RecordStatus) error
	UpsertPricing(ctx context.Context, pricing *models.Pricing) error
	OrderedQuantities(ctx context.Context, itemIDs []uuid.UUID, orderDate int64) (map[uuid.UUID]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an items repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Pricing").
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Item
	err := r.db.WithContext(ctx).
		Preload("Pricing").
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByCanteen(ctx context.Context, canteenID uuid.UUID, status enums.RecordStatus) ([]models.Item, error) {
	query := r.db.WithContext(ctx).
		Preload("Pricing").
		Where("canteen_id = ?", canteenID).
		Order("name ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Omit("Pricing").Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RecordStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) UpsertPricing(ctx context.Context, pricing *models.Pricing) error {
	var existing models.Pricing
	err := r.db.WithContext(ctx).
		Where("item_id = ?", pricing.ItemID).
		First(&existing).Error
	switch {
	case err == nil:
		existing.PricePaise = pricing.PricePaise
		existing.Currency = pricing.Currency
		return r.db.WithContext(ctx).Save(&existing).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(pricing).Error
	default:
		return err
	}
}

type orderedQuantityRow struct {
	ItemID uuid.UUID
	Total  int64
}

// OrderedQuantities sums settled order-item quantities per item for one
// serving day. Only placed and completed orders consume stock.
func (r *repository) OrderedQuantities(ctx context.Context, itemIDs []uuid.UUID, orderDate int64) (map[uuid.UUID]int64, error) {
	result := make(map[uuid.UUID]int64, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var rows []orderedQuantityRow
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.item_id AS item_id, COALESCE(SUM(order_items.quantity), 0) AS total").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.item_id IN ?", itemIDs).
		Where("orders.order_date = ?", orderDate).
		Where("orders.status IN ?", []enums.OrderStatus{enums.OrderStatusPlaced, enums.OrderStatusCompleted}).
		Group("order_items.item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ItemID] = row.Total
	}
	return result, nil
}
