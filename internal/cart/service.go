package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/pkg/dates"
	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
}

// Service exposes cart persistence for the ordering flow. A user holds at
// most one active cart; upserting replaces its contents.
type Service interface {
	UpsertCart(ctx context.Context, userID uuid.UUID, input UpsertCartInput) (*models.Cart, error)
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ClearActiveCart(ctx context.Context, userID uuid.UUID) error
}

// UpsertCartInput captures the draft order snapshot. OrderDate is DD-MM-YYYY.
type UpsertCartInput struct {
	CanteenID           uuid.UUID
	MenuConfigurationID uuid.UUID
	OrderDate           string
	Items               []CartItemInput
}

// CartItemInput is one requested line; unit prices come from the catalog,
// never from the client.
type CartItemInput struct {
	ItemID   uuid.UUID
	Quantity int64
}

type service struct {
	repo  Repository
	tx    txRunner
	items itemLoader
	loc   *time.Location
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, itemLoader itemLoader, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if itemLoader == nil {
		return nil, fmt.Errorf("item loader required")
	}
	if loc == nil {
		return nil, fmt.Errorf("timezone required")
	}
	return &service{repo: repo, tx: tx, items: itemLoader, loc: loc}, nil
}

func (s *service) UpsertCart(ctx context.Context, userID uuid.UUID, input UpsertCartInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.CanteenID == uuid.Nil || input.MenuConfigurationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id and configuration id are required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}

	orderDate, err := dates.DayStartUnix(input.OrderDate, s.loc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse order date")
	}

	lineItems, total, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	var result *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindActiveByUser(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}

		if existing == nil {
			cart := &models.Cart{
				UserID:              userID,
				CanteenID:           input.CanteenID,
				MenuConfigurationID: input.MenuConfigurationID,
				OrderDate:           orderDate,
				TotalPaise:          total,
				Status:              enums.CartStatusActive,
				Items:               lineItems,
			}
			created, err := repo.Create(ctx, cart)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
			result = created
			return nil
		}

		existing.CanteenID = input.CanteenID
		existing.MenuConfigurationID = input.MenuConfigurationID
		existing.OrderDate = orderDate
		existing.TotalPaise = total
		replaced, err := repo.ReplaceItems(ctx, existing, lineItems)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart items")
		}
		result = replaced
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) priceItems(ctx context.Context, inputs []CartItemInput) ([]models.CartItem, int64, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, input := range inputs {
		if input.ItemID == uuid.Nil {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
		}
		if input.Quantity <= 0 {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		ids = append(ids, input.ItemID)
	}

	catalog, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
	}
	byID := make(map[uuid.UUID]models.Item, len(catalog))
	for _, item := range catalog {
		byID[item.ID] = item
	}

	lineItems := make([]models.CartItem, 0, len(inputs))
	var total int64
	for _, input := range inputs {
		item, ok := byID[input.ItemID]
		if !ok {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		if item.Status != enums.RecordStatusActive {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s is not orderable", item.Name))
		}
		if item.Pricing == nil {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s has no price", item.Name))
		}

		lineTotal := item.Pricing.PricePaise * input.Quantity
		lineItems = append(lineItems, models.CartItem{
			ItemID:         input.ItemID,
			Quantity:       input.Quantity,
			UnitPricePaise: item.Pricing.PricePaise,
			TotalPaise:     lineTotal,
		})
		total += lineTotal
	}
	return lineItems, total, nil
}

func (s *service) GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) ClearActiveCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.GetActiveCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteWithItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
