package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/worldtek/canteen-backend/pkg/dates"
	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/pagination"
)

// Service aggregates order data for the admin dashboard. Revenue counts
// placed orders; cancelled and still-initiated orders are excluded.
type Service interface {
	Overview(ctx context.Context) (*Overview, error)
	Orders(ctx context.Context, input OrdersInput) (*OrdersPage, error)
}

// Overview is the dashboard headline block.
type Overview struct {
	Placed      Totals          `json:"placed"`
	Completed   Totals          `json:"completed"`
	ByCanteen   []CanteenTotals `json:"by_canteen"`
	GeneratedAt int64           `json:"generated_at"`
}

// OrdersInput filters the paginated order listing. Date is DD-MM-YYYY.
type OrdersInput struct {
	Filter OrdersFilter
	Date   string
	Params pagination.Params
}

// OrdersPage is one page of matching orders.
type OrdersPage struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService wires a dashboard service with the provided repository.
func NewService(repo Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if loc == nil {
		return nil, fmt.Errorf("timezone required")
	}
	return &service{repo: repo, loc: loc, now: time.Now}, nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	placed, err := s.repo.Totals(ctx, enums.OrderStatusPlaced)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate placed orders")
	}
	completed, err := s.repo.Totals(ctx, enums.OrderStatusCompleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate completed orders")
	}
	byCanteen, err := s.repo.TotalsByCanteen(ctx, enums.OrderStatusPlaced)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate canteens")
	}

	return &Overview{
		Placed:      *placed,
		Completed:   *completed,
		ByCanteen:   byCanteen,
		GeneratedAt: s.now().Unix(),
	}, nil
}

func (s *service) Orders(ctx context.Context, input OrdersInput) (*OrdersPage, error) {
	filter := input.Filter
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", filter.Status))
	}
	if input.Date != "" {
		day, err := dates.DayStartUnix(input.Date, s.loc)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse date")
		}
		filter.OrderDate = &day
	}

	orders, err := s.repo.ListOrders(ctx, filter, input.Params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	limit := pagination.NormalizeLimit(input.Params.Limit)
	page := &OrdersPage{Orders: orders}
	if len(orders) > limit {
		page.Orders = orders[:limit]
		last := page.Orders[len(page.Orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
