package menus

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
)

// Repository persists menus, menu items and menu configurations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateMenu(ctx context.Context, menu *models.Menu) (*models.Menu, error)
	FindMenuByID(ctx context.Context, id uuid.UUID) (*models.Menu, error)
	ListMenusByCanteen(ctx context.Context, canteenID uuid.UUID, status enums.RecordStatus) ([]models.Menu, error)
	FindActiveMenu(ctx context.Context, canteenID, configurationID uuid.UUID) (*models.Menu, error)
	ActiveMenusCoveringDate(ctx context.Context, canteenID *uuid.UUID, dayUnix int64) ([]models.Menu, error)
	UpdateMenu(ctx context.Context, menu *models.Menu) (*models.Menu, error)
	UpdateMenuStatus(ctx context.Context, id uuid.UUID, status enums.RecordStatus) error
	CreateConfiguration(ctx context.Context, config *models.MenuConfiguration) (*models.MenuConfiguration, error)
	FindConfigurationByID(ctx context.Context, id uuid.UUID) (*models.MenuConfiguration, error)
	ListConfigurations(ctx context.Context) ([]models.MenuConfiguration, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a menus repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateMenu(ctx context.Context, menu *models.Menu) (*models.Menu, error) {
	if err := r.db.WithContext(ctx).Create(menu).Error; err != nil {
		return nil, err
	}
	return menu, nil
}

func (r *repository) FindMenuByID(ctx context.Context, id uuid.UUID) (*models.Menu, error) {
	var menu models.Menu
	err := r.db.WithContext(ctx).
		Preload("Items", "status = ?", enums.RecordStatusActive).
		Preload("Items.Item.Pricing").
		Preload("Configuration").
		Where("id = ?", id).
		First(&menu).Error
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *repository) ListMenusByCanteen(ctx context.Context, canteenID uuid.UUID, status enums.RecordStatus) ([]models.Menu, error) {
	query := r.db.WithContext(ctx).
		Preload("Configuration").
		Where("canteen_id = ?", canteenID).
		Order("start_date ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var menus []models.Menu
	if err := query.Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

// FindActiveMenu returns the single active menu for a (canteen, configuration)
// pair, or gorm.ErrRecordNotFound.
func (r *repository) FindActiveMenu(ctx context.Context, canteenID, configurationID uuid.UUID) (*models.Menu, error) {
	var menu models.Menu
	err := r.db.WithContext(ctx).
		Where("canteen_id = ?", canteenID).
		Where("menu_configuration_id = ?", configurationID).
		Where("status = ?", enums.RecordStatusActive).
		First(&menu).Error
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *repository) ActiveMenusCoveringDate(ctx context.Context, canteenID *uuid.UUID, dayUnix int64) ([]models.Menu, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", "status = ?", enums.RecordStatusActive).
		Preload("Items.Item.Pricing").
		Preload("Configuration").
		Where("status = ?", enums.RecordStatusActive).
		Where("start_date <= ? AND end_date >= ?", dayUnix, dayUnix).
		Order("start_date ASC")
	if canteenID != nil {
		query = query.Where("canteen_id = ?", *canteenID)
	}

	var menus []models.Menu
	if err := query.Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

func (r *repository) UpdateMenu(ctx context.Context, menu *models.Menu) (*models.Menu, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "Configuration").Save(menu).Error; err != nil {
		return nil, err
	}
	return menu, nil
}

func (r *repository) UpdateMenuStatus(ctx context.Context, id uuid.UUID, status enums.RecordStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Menu{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) CreateConfiguration(ctx context.Context, config *models.MenuConfiguration) (*models.MenuConfiguration, error) {
	if err := r.db.WithContext(ctx).Create(config).Error; err != nil {
		return nil, err
	}
	return config, nil
}

func (r *repository) FindConfigurationByID(ctx context.Context, id uuid.UUID) (*models.MenuConfiguration, error) {
	var config models.MenuConfiguration
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *repository) ListConfigurations(ctx context.Context) ([]models.MenuConfiguration, error) {
	var configs []models.MenuConfiguration
	err := r.db.WithContext(ctx).
		Order("default_start_time ASC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}
