package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/pagination"
)

// Repository persists and aggregates wallet ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.WalletEntry) (*models.WalletEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletEntry, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SumByUserForUpdate(ctx context.Context, userID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.WalletEntry) (*models.WalletEntry, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletEntry, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.WalletEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.sum(ctx, r.db, userID)
}

// SumByUserForUpdate serializes concurrent settlements for one user by
// taking a row lock on the users row before summing the ledger. Locking
// the ledger rows themselves is not enough under read committed: a debit
// committed by a concurrent transaction is a phantom to the blocked
// statement's snapshot, and an empty ledger locks nothing at all.
func (r *repository) SumByUserForUpdate(ctx context.Context, userID uuid.UUID) (int64, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Take(&user).Error
	if err != nil {
		return 0, err
	}
	return r.sum(ctx, r.db, userID)
}

func (r *repository) sum(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	var entries []models.WalletEntry
	err := db.WithContext(ctx).
		Select("type", "amount_paise").
		Where("user_id = ?", userID).
		Find(&entries).Error
	if err != nil {
		return 0, err
	}
	return Balance(entries), nil
}
