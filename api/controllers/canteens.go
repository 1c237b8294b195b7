package controllers

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/api/validators"
	canteensvc "github.com/worldtek/canteen-backend/internal/canteens"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
)

type createCanteenRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

type updateCanteenRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

// CanteenCreate registers a new canteen.
func CanteenCreate(svc canteensvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteen service unavailable"))
			return
		}

		var payload createCanteenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		canteen, err := svc.Create(r.Context(), canteensvc.CreateCanteenInput{
			Name:        payload.Name,
			Description: payload.Description,
			Location:    payload.Location,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, canteen)
	}
}

// CanteenList returns canteens, active only unless include_inactive=true.
func CanteenList(svc canteensvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteen service unavailable"))
			return
		}

		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		canteens, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, canteens)
	}
}

// CanteenGet fetches one canteen by id.
func CanteenGet(svc canteensvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteen service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "canteenId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid canteen id"))
			return
		}

		canteen, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, canteen)
	}
}

// CanteenUpdate applies a partial update.
func CanteenUpdate(svc canteensvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteen service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "canteenId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid canteen id"))
			return
		}

		var payload updateCanteenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		canteen, err := svc.Update(r.Context(), id, canteensvc.UpdateCanteenInput{
			Name:        payload.Name,
			Description: payload.Description,
			Location:    payload.Location,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, canteen)
	}
}

// CanteenDeactivate soft-deletes a canteen.
func CanteenDeactivate(svc canteensvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "canteen service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "canteenId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid canteen id"))
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
