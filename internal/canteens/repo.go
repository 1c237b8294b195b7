package canteens

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Repository persists canteen records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error)
	List(ctx context.Context, status enums.RecordStatus) ([]models.Canteen, error)
	Update(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RecordStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a canteens repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error) {
	if err := r.db.WithContext(ctx).Create(canteen).Error; err != nil {
		return nil, err
	}
	return canteen, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Canteen, error) {
	var canteen models.Canteen
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&canteen).Error
	if err != nil {
		return nil, err
	}
	return &canteen, nil
}

func (r *repository) List(ctx context.Context, status enums.RecordStatus) ([]models.Canteen, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var canteens []models.Canteen
	if err := query.Find(&canteens).Error; err != nil {
		return nil, err
	}
	return canteens, nil
}

func (r *repository) Update(ctx context.Context, canteen *models.Canteen) (*models.Canteen, error) {
	if err := r.db.WithContext(ctx).Save(canteen).Error; err != nil {
		return nil, err
	}
	return canteen, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RecordStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Canteen{}).
		Where("id = ?", id).
		Update("status", status).Error
}
