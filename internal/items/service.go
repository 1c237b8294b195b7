package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/dates"
	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
)

// Service manages the item catalog and the per-day stock calculator.
type Service interface {
	Create(ctx context.Context, input CreateItemInput) (*models.Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByCanteen(ctx context.Context, canteenID uuid.UUID, includeInactive bool) ([]models.Item, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.Item, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	RemainingQuantities(ctx context.Context, itemIDs []uuid.UUID, date string) ([]RemainingQuantity, error)
}

// CreateItemInput carries the fields for a new item with its price.
type CreateItemInput struct {
	CanteenID   uuid.UUID
	Name        string
	Description *string
	Quantity    int64
	PricePaise  int64
}

// UpdateItemInput applies partial updates; nil fields are untouched.
type UpdateItemInput struct {
	Name        *string
	Description *string
	Quantity    *int64
	PricePaise  *int64
	Status      *enums.RecordStatus
}

// RemainingQuantity reports how much of an item's daily stock is still
// orderable on a date. Negative values mean the catalog was oversold.
type RemainingQuantity struct {
	ItemID    uuid.UUID `json:"item_id"`
	Catalog   int64     `json:"catalog_quantity"`
	Ordered   int64     `json:"ordered_quantity"`
	Remaining int64     `json:"remaining_quantity"`
}

type service struct {
	repo Repository
	loc  *time.Location
}

// NewService wires an items service with the provided repository and the
// canteen's serving timezone.
func NewService(repo Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if loc == nil {
		return nil, fmt.Errorf("timezone required")
	}
	return &service{repo: repo, loc: loc}, nil
}

func (s *service) Create(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.CanteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.PricePaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	item := &models.Item{
		CanteenID:   input.CanteenID,
		Name:        name,
		Description: input.Description,
		Quantity:    input.Quantity,
		Status:      enums.RecordStatusActive,
		Pricing: &models.Pricing{
			PricePaise: input.PricePaise,
			Currency:   enums.CurrencyINR,
		},
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) ListByCanteen(ctx context.Context, canteenID uuid.UUID, includeInactive bool) ([]models.Item, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}

	status := enums.RecordStatusActive
	if includeInactive {
		status = ""
	}
	items, err := s.repo.ListByCanteen(ctx, canteenID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		item.Name = name
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		item.Quantity = *input.Quantity
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *input.Status))
		}
		item.Status = *input.Status
	}

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}

	if input.PricePaise != nil {
		if *input.PricePaise <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		pricing := &models.Pricing{
			ItemID:     item.ID,
			PricePaise: *input.PricePaise,
			Currency:   enums.CurrencyINR,
		}
		if err := s.repo.UpsertPricing(ctx, pricing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pricing")
		}
		updated.Pricing = pricing
	}
	return updated, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, enums.RecordStatusInactive); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate item")
	}
	return nil
}

// RemainingQuantities subtracts a day's settled order quantities from each
// item's catalog stock. The date must be DD-MM-YYYY; overselling produces
// negative remainders rather than clamping to zero.
func (s *service) RemainingQuantities(ctx context.Context, itemIDs []uuid.UUID, date string) ([]RemainingQuantity, error) {
	if len(itemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item id is required")
	}

	orderDate, err := dates.DayStartUnix(date, s.loc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse date")
	}

	items, err := s.repo.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
	}
	if len(items) != len(itemIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more items not found")
	}

	ordered, err := s.repo.OrderedQuantities(ctx, itemIDs, orderDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ordered quantities")
	}

	byID := make(map[uuid.UUID]models.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	results := make([]RemainingQuantity, 0, len(itemIDs))
	for _, id := range itemIDs {
		item := byID[id]
		taken := ordered[id]
		results = append(results, RemainingQuantity{
			ItemID:    id,
			Catalog:   item.Quantity,
			Ordered:   taken,
			Remaining: item.Quantity - taken,
		})
	}
	return results, nil
}
