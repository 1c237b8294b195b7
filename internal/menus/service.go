package menus

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

// Service manages menus and their daily availability.
type Service interface {
	CreateMenu(ctx context.Context, input CreateMenuInput) (*models.Menu, error)
	GetMenu(ctx context.Context, id uuid.UUID) (*models.Menu, error)
	ListMenus(ctx context.Context, canteenID uuid.UUID, includeInactive bool) ([]models.Menu, error)
	UpdateMenu(ctx context.Context, id uuid.UUID, input UpdateMenuInput) (*models.Menu, error)
	DeactivateMenu(ctx context.Context, id uuid.UUID) error
	CreateConfiguration(ctx context.Context, input CreateConfigurationInput) (*models.MenuConfiguration, error)
	ListConfigurations(ctx context.Context) ([]models.MenuConfiguration, error)
	MenusForDate(ctx context.Context, canteenID *uuid.UUID, date string) ([]AvailableMenu, error)
	MenusGroupedNextTwoDays(ctx context.Context, canteenID *uuid.UUID) ([]DayMenus, error)
}

// CreateMenuInput carries the fields for a new menu. Dates are DD-MM-YYYY.
type CreateMenuInput struct {
	Name                string
	Description         *string
	CanteenID           uuid.UUID
	MenuConfigurationID uuid.UUID
	StartDate           string
	EndDate             string
	Items               []MenuItemInput
}

// MenuItemInput links an item onto the menu with per-order quantity bounds.
type MenuItemInput struct {
	ItemID      uuid.UUID
	MinQuantity int64
	MaxQuantity int64
}

// UpdateMenuInput applies partial updates; nil fields are untouched.
type UpdateMenuInput struct {
	Name        *string
	Description *string
	StartDate   *string
	EndDate     *string
}

// CreateConfigurationInput names a meal slot with its daily serving window.
type CreateConfigurationInput struct {
	Name      string
	StartTime string
	EndTime   string
}

// AvailableMenu is a menu that can be ordered from on a given day.
type AvailableMenu struct {
	Menu          models.Menu `json:"menu"`
	Configuration string      `json:"configuration"`
	ServingStart  string      `json:"serving_start"`
	ServingEnd    string      `json:"serving_end"`
}

// DayMenus buckets a day's available menus by configuration name.
type DayMenus struct {
	Date   string        `json:"date"`
	Groups []ConfigGroup `json:"groups"`
}

// ConfigGroup is one meal slot's menus, start-date ascending.
type ConfigGroup struct {
	Configuration string        `json:"configuration"`
	ServingStart  string        `json:"serving_start"`
	ServingEnd    string        `json:"serving_end"`
	Menus         []models.Menu `json:"menus"`
}

type service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService wires a menus service with the provided repository and the
// canteen's serving timezone.
func NewService(repo Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menus repository required")
	}
	if loc == nil {
		return nil, fmt.Errorf("timezone required")
	}
	return &service{repo: repo, loc: loc, now: time.Now}, nil
}

func (s *service) CreateMenu(ctx context.Context, input CreateMenuInput) (*models.Menu, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu name is required")
	}
	if input.CanteenID == uuid.Nil || input.MenuConfigurationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id and configuration id are required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu requires at least one item")
	}

	start, err := dates.DayStartUnix(input.StartDate, s.loc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse start date")
	}
	end, err := dates.DayStartUnix(input.EndDate, s.loc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse end date")
	}
	if end < start {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}

	if _, err := s.repo.FindConfigurationByID(ctx, input.MenuConfigurationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu configuration not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load configuration")
	}

	// One active menu per (canteen, configuration). The partial unique index
	// backstops this check against races.
	existing, err := s.repo.FindActiveMenu(ctx, input.CanteenID, input.MenuConfigurationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active menu")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active menu already exists for this canteen and configuration")
	}

	items := make([]models.MenuItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
		}
		minQty := item.MinQuantity
		if minQty <= 0 {
			minQty = 1
		}
		maxQty := item.MaxQuantity
		if maxQty <= 0 {
			maxQty = 10
		}
		if maxQty < minQty {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max quantity below min quantity")
		}
		items = append(items, models.MenuItem{
			ItemID:      item.ItemID,
			MinQuantity: minQty,
			MaxQuantity: maxQty,
			Status:      enums.RecordStatusActive,
		})
	}

	menu := &models.Menu{
		Name:                name,
		Description:         input.Description,
		CanteenID:           input.CanteenID,
		MenuConfigurationID: input.MenuConfigurationID,
		StartDate:           start,
		EndDate:             end,
		Status:              enums.RecordStatusActive,
		Items:               items,
	}
	created, err := s.repo.CreateMenu(ctx, menu)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu")
	}
	return created, nil
}

func (s *service) GetMenu(ctx context.Context, id uuid.UUID) (*models.Menu, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu id is required")
	}

	menu, err := s.repo.FindMenuByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu")
	}
	return menu, nil
}

func (s *service) ListMenus(ctx context.Context, canteenID uuid.UUID, includeInactive bool) ([]models.Menu, error) {
	if canteenID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "canteen id is required")
	}

	status := enums.RecordStatusActive
	if includeInactive {
		status = ""
	}
	menus, err := s.repo.ListMenusByCanteen(ctx, canteenID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menus")
	}
	return menus, nil
}

func (s *service) UpdateMenu(ctx context.Context, id uuid.UUID, input UpdateMenuInput) (*models.Menu, error) {
	menu, err := s.GetMenu(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu name cannot be empty")
		}
		menu.Name = name
	}
	if input.Description != nil {
		menu.Description = input.Description
	}
	if input.StartDate != nil {
		start, err := dates.DayStartUnix(*input.StartDate, s.loc)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse start date")
		}
		menu.StartDate = start
	}
	if input.EndDate != nil {
		end, err := dates.DayStartUnix(*input.EndDate, s.loc)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse end date")
		}
		menu.EndDate = end
	}
	if menu.EndDate < menu.StartDate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}

	updated, err := s.repo.UpdateMenu(ctx, menu)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu")
	}
	return updated, nil
}

// DeactivateMenu soft-deletes; the menu row survives for order history.
func (s *service) DeactivateMenu(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetMenu(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateMenuStatus(ctx, id, enums.RecordStatusInactive); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate menu")
	}
	return nil
}

func (s *service) CreateConfiguration(ctx context.Context, input CreateConfigurationInput) (*models.MenuConfiguration, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "configuration name is required")
	}

	start, err := parseClock(input.StartTime, s.loc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse start time")
	}
	end, err := parseClock(input.EndTime, s.loc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse end time")
	}
	if !end.After(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}

	config := &models.MenuConfiguration{
		Name:             name,
		DefaultStartTime: start.Unix(),
		DefaultEndTime:   end.Unix(),
	}
	created, err := s.repo.CreateConfiguration(ctx, config)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create configuration")
	}
	return created, nil
}

func (s *service) ListConfigurations(ctx context.Context) ([]models.MenuConfiguration, error) {
	configs, err := s.repo.ListConfigurations(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list configurations")
	}
	return configs, nil
}

// parseClock reads an HH:mm string onto an arbitrary fixed date; only the
// time-of-day component is ever used.
func parseClock(value string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation(dates.ClockLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected HH:mm): %w", value, err)
	}
	return parsed, nil
}

// MenusForDate returns the active menus whose day range covers the date. For
// today the serving window must currently be open; future dates skip the
// time-of-day check.
func (s *service) MenusForDate(ctx context.Context, canteenID *uuid.UUID, date string) ([]AvailableMenu, error) {
	day, err := dates.ParseDay(date, s.loc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse date")
	}

	menus, err := s.repo.ActiveMenusCoveringDate(ctx, canteenID, day.Unix())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menus")
	}

	now := s.now().In(s.loc)
	isToday := dates.SameDay(day, now)

	available := make([]AvailableMenu, 0, len(menus))
	for _, menu := range menus {
		if menu.Configuration == nil {
			continue
		}
		start := dates.OnDay(menu.Configuration.DefaultStartTime, day, s.loc)
		end := dates.OnDay(menu.Configuration.DefaultEndTime, day, s.loc)
		if isToday && (now.Before(start) || !now.Before(end)) {
			continue
		}
		available = append(available, AvailableMenu{
			Menu:          menu,
			Configuration: menu.Configuration.Name,
			ServingStart:  start.Format(dates.ClockLayout),
			ServingEnd:    end.Format(dates.ClockLayout),
		})
	}
	return available, nil
}

// MenusGroupedNextTwoDays buckets available menus for today and tomorrow by
// configuration name. Today's bucket keeps windows that have not started yet
// but drops already-ended ones; empty days are omitted.
func (s *service) MenusGroupedNextTwoDays(ctx context.Context, canteenID *uuid.UUID) ([]DayMenus, error) {
	now := s.now().In(s.loc)
	today := dates.DayStart(now)
	tomorrow := today.AddDate(0, 0, 1)

	var result []DayMenus
	for _, day := range []time.Time{today, tomorrow} {
		menus, err := s.repo.ActiveMenusCoveringDate(ctx, canteenID, day.Unix())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menus")
		}

		groups := s.groupByConfiguration(menus, day, now, dates.SameDay(day, now))
		if len(groups) == 0 {
			continue
		}
		result = append(result, DayMenus{
			Date:   dates.FormatDay(day),
			Groups: groups,
		})
	}
	return result, nil
}

func (s *service) groupByConfiguration(menus []models.Menu, day, now time.Time, isToday bool) []ConfigGroup {
	var order []string
	grouped := map[string]*ConfigGroup{}

	for _, menu := range menus {
		if menu.Configuration == nil {
			continue
		}
		start := dates.OnDay(menu.Configuration.DefaultStartTime, day, s.loc)
		end := dates.OnDay(menu.Configuration.DefaultEndTime, day, s.loc)
		// Not-yet-started windows stay listed today; ended ones drop out.
		if isToday && !now.Before(end) {
			continue
		}

		name := menu.Configuration.Name
		group, ok := grouped[name]
		if !ok {
			group = &ConfigGroup{
				Configuration: name,
				ServingStart:  start.Format(dates.ClockLayout),
				ServingEnd:    end.Format(dates.ClockLayout),
			}
			grouped[name] = group
			order = append(order, name)
		}
		group.Menus = append(group.Menus, menu)
	}

	groups := make([]ConfigGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, *grouped[name])
	}
	return groups
}
