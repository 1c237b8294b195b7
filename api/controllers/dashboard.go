package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/api/validators"
	dashboardsvc "github.com/worldtek/canteen-backend/internal/dashboard"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
	"github.com/worldtek/canteen-backend/pkg/pagination"
)

// DashboardOverview returns the headline revenue and per-canteen split.
func DashboardOverview(svc dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		overview, err := svc.Overview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}

// DashboardOrders pages through orders filtered by canteen, status and date.
func DashboardOrders(svc dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		var filter dashboardsvc.OrdersFilter
		if raw := r.URL.Query().Get("canteen_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid canteen id"))
				return
			}
			filter.CanteenID = &id
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			filter.Status = enums.OrderStatus(strings.ToLower(raw))
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Orders(r.Context(), dashboardsvc.OrdersInput{
			Filter: filter,
			Date:   r.URL.Query().Get("date"),
			Params: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
