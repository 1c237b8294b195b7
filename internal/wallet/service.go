package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/pagination"
)

// Service exposes wallet balance and ledger operations. Credits and debits
// are only ever appended; the balance is the running sum of entries.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	Credit(ctx context.Context, input EntryInput) (*models.WalletEntry, error)
	Debit(ctx context.Context, input EntryInput) (*models.WalletEntry, error)
	Statement(ctx context.Context, userID uuid.UUID, params pagination.Params) (*StatementResult, error)
}

// EntryInput carries the data for a new ledger entry.
type EntryInput struct {
	UserID      uuid.UUID
	AmountPaise int64
	ReferenceID *uuid.UUID
}

// StatementResult is one page of ledger entries with the running balance.
type StatementResult struct {
	Entries      []models.WalletEntry
	BalancePaise int64
	NextCursor   string
}

type service struct {
	repo Repository
}

// NewService wires a wallet service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo}, nil
}

// Balance sums the signed ledger entries for a user.
func Balance(entries []models.WalletEntry) int64 {
	var total int64
	for _, entry := range entries {
		switch entry.Type {
		case enums.WalletEntryCredit:
			total += entry.AmountPaise
		case enums.WalletEntryDebit:
			total -= entry.AmountPaise
		}
	}
	return total
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.SumByUser(ctx, userID)
}

func (s *service) Credit(ctx context.Context, input EntryInput) (*models.WalletEntry, error) {
	return s.append(ctx, enums.WalletEntryCredit, input)
}

func (s *service) Debit(ctx context.Context, input EntryInput) (*models.WalletEntry, error) {
	return s.append(ctx, enums.WalletEntryDebit, input)
}

func (s *service) append(ctx context.Context, entryType enums.WalletEntryType, input EntryInput) (*models.WalletEntry, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	entry := &models.WalletEntry{
		UserID:      input.UserID,
		ReferenceID: input.ReferenceID,
		Type:        entryType,
		AmountPaise: input.AmountPaise,
	}
	return s.repo.Create(ctx, entry)
}

func (s *service) Statement(ctx context.Context, userID uuid.UUID, params pagination.Params) (*StatementResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	entries, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	balance, err := s.repo.SumByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &StatementResult{
		Entries:      entries,
		BalancePaise: balance,
		NextCursor:   next,
	}, nil
}
