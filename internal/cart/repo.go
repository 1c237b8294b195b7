package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Repository persists draft carts and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
	ReplaceItems(ctx context.Context, cart *models.Cart, items []models.CartItem) (*models.Cart, error)
	DeleteWithItems(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *repository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Where("status = ?", enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}

// ReplaceItems swaps the cart's line items and refreshed totals in one shot.
func (r *repository) ReplaceItems(ctx context.Context, cart *models.Cart, items []models.CartItem) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}

	for i := range items {
		items[i].CartID = cart.ID
	}
	if len(items) > 0 {
		if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
			return nil, err
		}
	}

	cart.Items = items
	if err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"total_paise":           cart.TotalPaise,
			"canteen_id":            cart.CanteenID,
			"menu_configuration_id": cart.MenuConfigurationID,
			"order_date":            cart.OrderDate,
		}).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *repository) DeleteWithItems(ctx context.Context, cartID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", cartID).
		Delete(&models.Cart{}).Error
}
