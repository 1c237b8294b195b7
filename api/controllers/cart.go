package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/api/middleware"
	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/api/validators"
	cartsvc "github.com/worldtek/canteen-backend/internal/cart"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
)

type upsertCartRequest struct {
	CanteenID           uuid.UUID         `json:"canteen_id" validate:"required"`
	MenuConfigurationID uuid.UUID         `json:"menu_configuration_id" validate:"required"`
	OrderDate           string            `json:"order_date" validate:"required"`
	Items               []cartItemPayload `json:"items" validate:"required,min=1,dive"`
}

type cartItemPayload struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int64     `json:"quantity" validate:"required,min=1"`
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}

// CartUpsert replaces the caller's active cart with the submitted draft.
func CartUpsert(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload upsertCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]cartsvc.CartItemInput, len(payload.Items))
		for i, item := range payload.Items {
			items[i] = cartsvc.CartItemInput{ItemID: item.ItemID, Quantity: item.Quantity}
		}

		cart, err := svc.UpsertCart(r.Context(), userID, cartsvc.UpsertCartInput{
			CanteenID:           payload.CanteenID,
			MenuConfigurationID: payload.MenuConfigurationID,
			OrderDate:           payload.OrderDate,
			Items:               items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartGet returns the caller's active cart.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetActiveCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

// CartClear abandons the caller's active cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearActiveCart(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
