package controllers

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/api/validators"
	menusvc "github.com/worldtek/canteen-backend/internal/menus"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
)

type createMenuRequest struct {
	Name                string                `json:"name" validate:"required,max=200"`
	Description         *string               `json:"description"`
	CanteenID           uuid.UUID             `json:"canteen_id" validate:"required"`
	MenuConfigurationID uuid.UUID             `json:"menu_configuration_id" validate:"required"`
	StartDate           string                `json:"start_date" validate:"required"`
	EndDate             string                `json:"end_date" validate:"required"`
	Items               []menuItemRequestItem `json:"items" validate:"required,min=1,dive"`
}

type menuItemRequestItem struct {
	ItemID      uuid.UUID `json:"item_id" validate:"required"`
	MinQuantity int64     `json:"min_quantity"`
	MaxQuantity int64     `json:"max_quantity"`
}

type updateMenuRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type createConfigurationRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// MenuCreate publishes a menu for a date range under a meal configuration.
func MenuCreate(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		var payload createMenuRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]menusvc.MenuItemInput, len(payload.Items))
		for i, item := range payload.Items {
			items[i] = menusvc.MenuItemInput{
				ItemID:      item.ItemID,
				MinQuantity: item.MinQuantity,
				MaxQuantity: item.MaxQuantity,
			}
		}

		menu, err := svc.CreateMenu(r.Context(), menusvc.CreateMenuInput{
			Name:                payload.Name,
			Description:         payload.Description,
			CanteenID:           payload.CanteenID,
			MenuConfigurationID: payload.MenuConfigurationID,
			StartDate:           payload.StartDate,
			EndDate:             payload.EndDate,
			Items:               items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, menu)
	}
}

// MenuGet fetches one menu with its items and configuration.
func MenuGet(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "menuId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid menu id"))
			return
		}

		menu, err := svc.GetMenu(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, menu)
	}
}

// MenuList returns a canteen's menus.
func MenuList(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		canteenID, err := uuid.Parse(chi.URLParam(r, "canteenId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid canteen id"))
			return
		}

		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		menus, err := svc.ListMenus(r.Context(), canteenID, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, menus)
	}
}

// MenuUpdate applies a partial update to a menu's header fields.
func MenuUpdate(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "menuId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid menu id"))
			return
		}

		var payload updateMenuRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		menu, err := svc.UpdateMenu(r.Context(), id, menusvc.UpdateMenuInput{
			Name:        payload.Name,
			Description: payload.Description,
			StartDate:   payload.StartDate,
			EndDate:     payload.EndDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, menu)
	}
}

// MenuDeactivate retires a menu so a replacement can go live.
func MenuDeactivate(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "menuId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid menu id"))
			return
		}

		if err := svc.DeactivateMenu(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// MenuAvailability lists menus orderable on a date, or grouped for the
// next two days when no date is supplied.
func MenuAvailability(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		var canteenID *uuid.UUID
		if raw := r.URL.Query().Get("canteen_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid canteen id"))
				return
			}
			canteenID = &id
		}

		if date := r.URL.Query().Get("date"); date != "" {
			available, err := svc.MenusForDate(r.Context(), canteenID, date)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, available)
			return
		}

		grouped, err := svc.MenusGroupedNextTwoDays(r.Context(), canteenID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, grouped)
	}
}

// ConfigurationCreate names a meal slot with its serving window.
func ConfigurationCreate(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		var payload createConfigurationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		config, err := svc.CreateConfiguration(r.Context(), menusvc.CreateConfigurationInput{
			Name:      payload.Name,
			StartTime: payload.StartTime,
			EndTime:   payload.EndTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, config)
	}
}

// ConfigurationList returns all meal slots.
func ConfigurationList(svc menusvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		configs, err := svc.ListConfigurations(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, configs)
	}
}
