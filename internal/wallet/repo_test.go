package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	"github.com/worldtek/canteen-backend/pkg/pagination"
)

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS wallet_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  reference_id TEXT,
  type TEXT NOT NULL,
  amount_paise INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT,
  email TEXT,
  mobile TEXT NOT NULL UNIQUE,
  canteen_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := &models.User{ID: uuid.New(), FirstName: "Asha", Mobile: "91" + uuid.NewString()[:10]}
	require.NoError(t, db.Create(user).Error)
	return user.ID
}

func appendEntry(t *testing.T, repo Repository, userID uuid.UUID, entryType enums.WalletEntryType, amount int64) *models.WalletEntry {
	t.Helper()

	entry, err := repo.Create(context.Background(), &models.WalletEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        entryType,
		AmountPaise: amount,
	})
	require.NoError(t, err)
	return entry
}

func TestSumByUser(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	otherID := uuid.New()

	appendEntry(t, repo, userID, enums.WalletEntryCredit, 50000)
	appendEntry(t, repo, userID, enums.WalletEntryDebit, 12500)
	appendEntry(t, repo, userID, enums.WalletEntryCredit, 2500)
	appendEntry(t, repo, otherID, enums.WalletEntryCredit, 99999)

	sum, err := repo.SumByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), sum)
}

func TestSumByUserEmptyLedger(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)

	sum, err := repo.SumByUser(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

func TestSumByUserForUpdate(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	userID := seedUser(t, db)

	appendEntry(t, repo, userID, enums.WalletEntryCredit, 30000)
	appendEntry(t, repo, userID, enums.WalletEntryDebit, 5000)

	sum, err := repo.SumByUserForUpdate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), sum)

	// An empty ledger still anchors the lock on the users row.
	emptyUser := seedUser(t, db)
	sum, err = repo.SumByUserForUpdate(context.Background(), emptyUser)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

func TestSumByUserForUpdateRequiresUserRow(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)

	_, err := repo.SumByUserForUpdate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListByUserOrdersNewestFirst(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	appendEntry(t, repo, userID, enums.WalletEntryCredit, 100)
	appendEntry(t, repo, userID, enums.WalletEntryDebit, 40)

	entries, err := repo.ListByUser(context.Background(), userID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, userID, entry.UserID)
	}
}

func TestWithTxSharesTransaction(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		appendEntry(t, txRepo, userID, enums.WalletEntryCredit, 777)
		return nil
	})
	require.NoError(t, err)

	sum, err := repo.SumByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(777), sum)
}
