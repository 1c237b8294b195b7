package controllers

import (
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/api/validators"
	itemsvc "github.com/worldtek/canteen-backend/internal/items"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
)

type createItemRequest struct {
	CanteenID   uuid.UUID `json:"canteen_id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=200"`
	Description *string   `json:"description"`
	Quantity    int64     `json:"quantity" validate:"required,min=1"`
	PricePaise  int64     `json:"price_paise" validate:"required,min=1"`
}

type updateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Quantity    *int64  `json:"quantity"`
	PricePaise  *int64  `json:"price_paise"`
	Status      *string `json:"status"`
}

type remainingQuantitiesRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" validate:"required,min=1"`
	Date    string      `json:"date" validate:"required"`
}

// ItemCreate adds a catalog item with its price.
func ItemCreate(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), itemsvc.CreateItemInput{
			CanteenID:   payload.CanteenID,
			Name:        payload.Name,
			Description: payload.Description,
			Quantity:    payload.Quantity,
			PricePaise:  payload.PricePaise,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// ItemList returns a canteen's catalog.
func ItemList(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		canteenID, err := uuid.Parse(chi.URLParam(r, "canteenId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid canteen id"))
			return
		}

		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		items, err := svc.ListByCanteen(r.Context(), canteenID, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// ItemGet fetches one item with its price.
func ItemGet(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		item, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemUpdate applies a partial update, including price changes.
func ItemUpdate(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := itemsvc.UpdateItemInput{
			Name:        payload.Name,
			Description: payload.Description,
			Quantity:    payload.Quantity,
			PricePaise:  payload.PricePaise,
		}
		if payload.Status != nil {
			status := enums.RecordStatus(strings.ToLower(*payload.Status))
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			input.Status = &status
		}

		item, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemDeactivate soft-deletes an item from the catalog.
func ItemDeactivate(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// ItemRemainingQuantities reports per-item stock left for a date.
func ItemRemainingQuantities(svc itemsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		var payload remainingQuantitiesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		remaining, err := svc.RemainingQuantities(r.Context(), payload.ItemIDs, payload.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, remaining)
	}
}
